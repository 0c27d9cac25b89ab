package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// SendLimiter is a token bucket shared by every email job in the process so
// that concurrent drains never exceed the provider's request rate.
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type SendLimiter struct {
	limiter *rate.Limiter
}

// New creates a SendLimiter with ratePerSec tokens per second.
// A non-positive rate disables limiting.
func New(ratePerSec int) *SendLimiter {
	if ratePerSec <= 0 {
		return &SendLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &SendLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Wait blocks until a token is granted.
// Returns a non-nil error only if ctx is cancelled or its deadline would be
// exceeded while waiting.
func (l *SendLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
