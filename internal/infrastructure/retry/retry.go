// Package retry provides an explicit exponential-backoff executor for
// network-facing operations. Call sites opt in with retry.Do; there is no
// implicit wrapping.
package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Policy controls how many times an operation is attempted and how long to
// wait between attempts. The delay before attempt k (k >= 2) is
// min(BaseDelay * Multiplier^(k-2), MaxDelay).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultPolicy matches the gateway default: 3 attempts, 1s base delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
		Multiplier:  2.0,
	}
}

// Delay returns the backoff delay before the given attempt (1-based).
// Attempt 1 runs immediately.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := float64(p.BaseDelay)
	for i := 2; i < attempt; i++ {
		d *= p.Multiplier
	}
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && d > max {
		d = max
	}
	return time.Duration(d)
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do surfaces it immediately without consuming
// further attempts. The wrapper is stripped before the error is returned.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do invokes op up to policy.MaxAttempts times, sleeping between attempts.
// The last failure is returned unchanged (not wrapped) so callers can keep
// matching on the original error. Each retry is logged at warn level with
// the attempt number and delay. Backoff sleep is aborted by context
// cancellation, returning ctx.Err().
func Do(ctx context.Context, policy Policy, log *zap.Logger, name string, op func(ctx context.Context) error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := policy.Delay(attempt)
			log.Warn("operation failed, retrying",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", policy.MaxAttempts),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
	}

	log.Error("operation failed after all attempts",
		zap.String("operation", name),
		zap.Int("max_attempts", policy.MaxAttempts),
		zap.Error(lastErr),
	)
	return lastErr
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, policy Policy, log *zap.Logger, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, policy, log, name, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
