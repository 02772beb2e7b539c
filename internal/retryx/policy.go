// Package retryx wraps sethvargo/go-retry with a small value type that can be
// built from configuration and injected into components that talk to the
// database.
package retryx

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy describes how an operation is retried: exponential backoff starting
// at BaseDelay, capped at MaxDelay, with optional jitter, for at most
// MaxAttempts calls in total. Only errors accepted by Retryable are retried.
type Policy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	JitterPercent uint64

	Retryable func(error) bool

	// OnRetry is called for every retryable failure with its 1-based attempt.
	OnRetry func(ctx context.Context, attempt int, err error)
}

// NoRetry runs the operation exactly once.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1}
}

func (p Policy) backoff() retry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	b := retry.NewExponential(base)
	if p.JitterPercent > 0 {
		b = retry.WithJitterPercent(p.JitterPercent, b)
	}
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return retry.WithMaxRetries(uint64(retries), b)
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted or ctx is done. The last error from fn is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempt := 0

	return retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++

		err := fn(ctx)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil || p.Retryable == nil || !p.Retryable(err) {
			return err
		}

		if p.OnRetry != nil {
			p.OnRetry(ctx, attempt, err)
		}
		return retry.RetryableError(err)
	})
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
