package einvoice

import "time"

// RetryPolicy bounds automatic retries of transient failures: exponential
// backoff with a base delay doubling per attempt up to a ceiling, and a hard
// attempt bound after which the record is left in Error for manual
// intervention.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the platform guidance: 5 attempts, 2s base,
// 5 min ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxDelay: 5 * time.Minute}
}

// Delay returns the backoff delay before the given attempt (1-based):
// base * 2^(attempt-1), capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
