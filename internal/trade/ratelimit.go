package trade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests to the remote API. It combines a token bucket
// with a penalty window set from Retry-After when the remote side throttles.
type RateLimiter struct {
	limiter      *rate.Limiter
	mu           sync.Mutex
	blockedUntil time.Time
	nowFunc      func() time.Time
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterNowFunc overrides the time function for testing.
func WithRateLimiterNowFunc(f func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.nowFunc = f
	}
}

// NewRateLimiter creates a rate limiter. A non-positive perSecond disables
// the token bucket; the penalty window still applies.
func NewRateLimiter(perSecond float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}

	r := &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Wait blocks until a request may be sent, or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if d := r.penaltyRemaining(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting out throttle: %w", ctx.Err())
		case <-timer.C:
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// Penalize blocks all requests for d from now. A shorter penalty never
// shortens one already in effect.
func (r *RateLimiter) Penalize(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until := r.nowFunc().Add(d)
	if until.After(r.blockedUntil) {
		r.blockedUntil = until
	}
}

// BlockedUntil returns the end of the current penalty window.
func (r *RateLimiter) BlockedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockedUntil
}

func (r *RateLimiter) penaltyRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockedUntil.Sub(r.nowFunc())
}
