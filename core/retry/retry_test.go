package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingPolicy(attempts int, interval time.Duration, strategy Strategy) (*Policy, *[]time.Duration) {
	var delays []time.Duration
	p := New(attempts, interval, strategy)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return p, &delays
}

// TestPolicy_Do tests success, recovery and exhaustion paths.
func TestPolicy_Do(t *testing.T) {
	t.Run("First Attempt Succeeds", func(t *testing.T) {
		p, delays := recordingPolicy(3, time.Second, Constant)
		calls := 0
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, *delays)
	})

	t.Run("Fails Twice Then Succeeds", func(t *testing.T) {
		p, delays := recordingPolicy(3, 2*time.Second, ExponentialBackoff)
		calls := 0
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *delays)
	})

	t.Run("Exhausted Returns Last Error", func(t *testing.T) {
		p, delays := recordingPolicy(3, time.Second, Constant)
		first := errors.New("first")
		last := errors.New("last")
		calls := 0
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls == 3 {
				return last
			}
			return first
		})
		assert.Same(t, last, err)
		assert.Equal(t, 3, calls)
		assert.Len(t, *delays, 2)
	})

	t.Run("Non Retryable Stops Early", func(t *testing.T) {
		p, delays := recordingPolicy(5, time.Second, Constant)
		fatal := errors.New("fatal")
		p.RetryIf = func(err error) bool { return !errors.Is(err, fatal) }
		calls := 0
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return fatal
		})
		assert.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
		assert.Empty(t, *delays)
	})

	t.Run("Zero Attempts Runs Once", func(t *testing.T) {
		p, _ := recordingPolicy(0, time.Second, Constant)
		calls := 0
		_ = p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return errors.New("x")
		})
		assert.Equal(t, 1, calls)
	})
}

func TestPolicy_Do_Cancelled(t *testing.T) {
	p := New(3, time.Hour, Constant)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Do(ctx, func(ctx context.Context) error {
		return errors.New("boom")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_Delay(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		want     []time.Duration
	}{
		{"Constant", Constant, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second}},
		{"Linear", Linear, []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}},
		{"Exponential", ExponentialBackoff, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(4, 2*time.Second, tt.strategy)
			for i, want := range tt.want {
				assert.Equal(t, want, p.Delay(i+1))
			}
		})
	}
}

func TestValue(t *testing.T) {
	p, _ := recordingPolicy(2, time.Millisecond, Constant)
	calls := 0
	v, err := Value(context.Background(), p, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("again")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "exponential_backoff", ExponentialBackoff.String())
	assert.Equal(t, "strategy(9)", Strategy(9).String())
}
