package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name      string
		err       error
		kind      Kind
		retryable bool
	}{
		{"transport", Transport("classify", base), KindTransport, true},
		{"malformed", Malformedf("resolve", "no object"), KindMalformed, true},
		{"wrapped malformed", fmt.Errorf("turn: %w", Malformed("route", base)), KindMalformed, true},
		{"unknown reference", UnknownReference("route", "agent %q", "bard"), KindUnknownReference, false},
		{"invariant", Invariant("status", "hp below zero"), KindInvariantViolation, false},
		{"plain", base, KindUnknown, false},
		{"nil", nil, KindUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf() = %q, want %q", got, tt.kind)
			}
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("connection reset")
	err := Transport("synthesize", base)
	if !errors.Is(err, base) {
		t.Error("expected errors.Is to find wrapped error")
	}
	if err.Error() != "synthesize: transport_failure: connection reset" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestOutcomeOf(t *testing.T) {
	if OutcomeOf(nil) != nil {
		t.Error("expected nil outcome for nil error")
	}

	o := OutcomeOf(Malformedf("resolve", "no structured payload"))
	if o.Kind != KindMalformed || o.Op != "resolve" || o.Message != "no structured payload" {
		t.Errorf("unexpected outcome %+v", o)
	}

	o = OutcomeOf(errors.New("dial tcp: refused"))
	if o.Kind != KindTransport {
		t.Errorf("plain errors should map to transport, got %q", o.Kind)
	}
}
