// Package retry provides RetryPolicy, a bounded retry loop with constant,
// linear or exponential waits between attempts.
//
//	p := retry.New(3, 2*time.Second, retry.ExponentialBackoff)
//	err := p.Do(ctx, func(ctx context.Context) error {
//	    return remote.Validate(ctx)
//	})
//
// After the final attempt the last error is returned as is. Waits stop early
// when the context is cancelled.
package retry
