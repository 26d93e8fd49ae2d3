// Package retry holds the single retry policy shared by every collaborator
// call site.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
)

const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second
	DefaultMultiplier      = 2.0
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// Retryable decides whether an error deserves another attempt.
	// Defaults to failure.IsRetryable.
	Retryable func(error) bool
	Logger    *slog.Logger
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     DefaultMaxAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
		Retryable:       failure.IsRetryable,
	}
}

// NoWait returns p with waits reduced to a nanosecond.
func (p Policy) NoWait() Policy {
	p.InitialInterval = time.Nanosecond
	p.MaxInterval = time.Nanosecond
	return p
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	if p.Multiplier > 0 {
		b.Multiplier = p.Multiplier
	}
	return b
}

// Do runs op until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. The last error is returned unwrapped.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = failure.IsRetryable
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := fn(ctx)
		if err != nil && !retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, next time.Duration) {
		if p.Logger != nil {
			p.Logger.Warn("Collaborator call failed, retrying",
				"op", op,
				"attempt", attempt,
				"max_attempts", attempts,
				"next_in", next,
				"error", err)
		}
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify))
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Unwrap()
		}
		return res, err
	}
	return res, nil
}
