package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Strategy selects how the wait grows between attempts.
type Strategy int

const (
	// Constant waits Interval between every attempt.
	Constant Strategy = iota
	// Linear waits Interval * n after the n-th failure.
	Linear
	// ExponentialBackoff waits Interval * Multiplier^(n-1) after the n-th failure.
	ExponentialBackoff
)

func (s Strategy) String() string {
	switch s {
	case Constant:
		return "constant"
	case Linear:
		return "linear"
	case ExponentialBackoff:
		return "exponential_backoff"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Policy retries a failing operation a bounded number of times.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
	Strategy    Strategy
	// Multiplier only applies to ExponentialBackoff. Zero means 2.
	Multiplier float64
	// RetryIf reports whether an error is worth another attempt. Nil retries everything.
	RetryIf func(error) bool

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a policy with the given attempt budget, base interval and strategy.
func New(maxAttempts int, interval time.Duration, strategy Strategy) *Policy {
	return &Policy{
		MaxAttempts: maxAttempts,
		Interval:    interval,
		Strategy:    strategy,
		Multiplier:  2,
	}
}

// Do runs fn until it succeeds or the attempts are exhausted.
// The last failure is returned unchanged so callers can match on it.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts || (p.RetryIf != nil && !p.RetryIf(err)) {
			break
		}

		if err := p.wait(ctx, p.Delay(attempt)); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}

	return lastErr
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
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

// Delay returns the wait applied after the given failed attempt (1-based).
func (p *Policy) Delay(attempt int) time.Duration {
	switch p.Strategy {
	case Linear:
		return p.Interval * time.Duration(attempt)
	case ExponentialBackoff:
		m := p.Multiplier
		if m <= 0 {
			m = 2
		}
		return time.Duration(float64(p.Interval) * math.Pow(m, float64(attempt-1)))
	default:
		return p.Interval
	}
}

func (p *Policy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
