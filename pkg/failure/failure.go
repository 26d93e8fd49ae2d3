// Package failure classifies errors raised while talking to reasoning
// collaborators or merging their output into game state.
package failure

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories the engine knows how to recover from.
type Kind string

const (
	KindUnknown            Kind = ""
	KindTransport          Kind = "transport_failure"   // collaborator unreachable, timed out or returned an error status
	KindMalformed          Kind = "malformed_response"  // no structured payload could be extracted or decoded
	KindUnknownReference   Kind = "unknown_reference"   // an agent, scene or character that does not exist
	KindInvariantViolation Kind = "invariant_violation" // an update that would break a state invariant
)

// Error wraps an underlying error with its Kind and the operation that raised it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Transport wraps err as a TransportFailure.
func Transport(op string, err error) error {
	return New(KindTransport, op, err)
}

// Malformed wraps err as a MalformedResponse.
func Malformed(op string, err error) error {
	return New(KindMalformed, op, err)
}

// Malformedf builds a MalformedResponse from a format string.
func Malformedf(op, format string, args ...any) error {
	return New(KindMalformed, op, fmt.Errorf(format, args...))
}

// UnknownReference reports a reference to something that does not exist.
func UnknownReference(op, format string, args ...any) error {
	return New(KindUnknownReference, op, fmt.Errorf(format, args...))
}

// Invariant reports an invariant that had to be corrected.
func Invariant(op, format string, args ...any) error {
	return New(KindInvariantViolation, op, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether another attempt could succeed. Transport and
// malformed-response failures are retried; everything else is final.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransport, KindMalformed:
		return true
	default:
		return false
	}
}

// Outcome is the serialisable failure value substituted into results when a
// step could not complete normally.
type Outcome struct {
	Kind    Kind   `json:"kind"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

// OutcomeOf converts err into an Outcome. Errors without a Kind are treated
// as transport failures since they originate outside the engine.
func OutcomeOf(err error) *Outcome {
	if err == nil {
		return nil
	}
	o := &Outcome{Kind: KindTransport, Message: err.Error()}
	var fe *Error
	if errors.As(err, &fe) {
		o.Kind = fe.Kind
		o.Op = fe.Op
		if fe.Err != nil {
			o.Message = fe.Err.Error()
		}
	}
	return o
}
