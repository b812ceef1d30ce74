// Package retry runs an operation under a bounded, fixed-delay retry policy.
package retry

import (
	"context"
	"time"
)

// Policy bounds how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first one.
	MaxAttempts int
	// Delay is the fixed pause between two attempts.
	Delay time.Duration
	// Retryable decides whether a failed attempt may be tried again.
	// A nil predicate retries every error.
	Retryable func(error) bool
	// OnRetry is called before sleeping after a retryable failure.
	OnRetry func(attempt int, err error)
}

// Result is the outcome of Do: either a value or the terminal error.
type Result[T any] struct {
	Value    T
	Err      error
	Attempts int
}

// OK reports whether the operation eventually succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the value and error as a conventional pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempt budget
// is spent, or ctx is done. The terminal error is the last error fn returned,
// or ctx.Err() if the context ended while waiting.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) Result[T] {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var res Result[T]
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if res.Err == nil {
				res.Err = err
			}
			return res
		}

		res.Attempts = attempt
		value, err := fn(ctx)
		if err == nil {
			return Result[T]{Value: value, Attempts: attempt}
		}
		res.Err = err

		if attempt == attempts || (p.Retryable != nil && !p.Retryable(err)) {
			return res
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		if p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return res
			case <-timer.C:
			}
		}
	}
	return res
}
