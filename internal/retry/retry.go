// Package retry runs operations under a bounded exponential backoff policy.
package retry

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 10 * time.Second
)

// Policy describes how many times an operation is attempted and how long to
// wait between attempts. Only errors accepted by Retryable are retried.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Retryable      func(error) bool
	Logger         *slog.Logger

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy returns the default policy (3 attempts, 1s doubling up to 10s)
// retrying the errors accepted by retryable.
func NewPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		Retryable:      retryable,
	}
}

// WithRetryable returns a copy of p using a different classifier.
func (p Policy) WithRetryable(retryable func(error) bool) Policy {
	p.Retryable = retryable
	return p
}

// Backoff returns the wait after the given 1-based attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempt
// budget is spent. The error of the last attempt is returned as is.
func (p Policy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) || attempt == attempts {
			return err
		}

		wait := p.Backoff(attempt)
		if p.Logger != nil {
			p.Logger.Warn("retry",
				"op", name,
				"attempt", attempt,
				"max_attempts", attempts,
				"backoff", wait,
				"error", err,
			)
		}
		if sleep(ctx, wait) != nil {
			return err
		}
	}
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, name, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
