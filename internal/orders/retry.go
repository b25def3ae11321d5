package orders

import (
	"context"
	"time"
)

// RetryPolicy describes a bounded retry schedule. Exponential policies
// double the backoff each attempt up to Cap; linear policies wait Initial
// between every attempt.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Cap         time.Duration
	Exponential bool
}

// Backoff returns the wait before the given attempt (1-based). Attempt 1
// runs immediately.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	if !p.Exponential {
		return p.Initial
	}
	d := p.Initial
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= p.Cap {
			return p.Cap
		}
	}
	if d > p.Cap {
		return p.Cap
	}
	return d
}

// Run invokes fn until it succeeds, the schedule is exhausted, or ctx is
// done. It returns the last error when the budget runs out.
func (p RetryPolicy) Run(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if wait := p.Backoff(attempt); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// Schedules used by the resilient order store.
var (
	// Background: ~20 attempts, exponential backoff capped at 5s.
	backgroundRetry = RetryPolicy{MaxAttempts: 20, Initial: 250 * time.Millisecond, Cap: 5 * time.Second, Exponential: true}
	// Synchronous (safe mode): 3 quick attempts before deferring.
	synchronousRetry = RetryPolicy{MaxAttempts: 3, Initial: 200 * time.Millisecond}
)
