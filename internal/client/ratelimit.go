package client

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests. A zero or negative rate disables it.
type RateLimiter struct {
	limiter *rate.Limiter
	enabled bool
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	if requestsPerSecond <= 0 {
		return &RateLimiter{enabled: false}
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst(requestsPerSecond)),
		enabled: true,
	}
}

// Wait waits until a request can be made
func (r *RateLimiter) Wait(ctx context.Context) error {
	if !r.enabled {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// Enabled reports whether pacing is active
func (r *RateLimiter) Enabled() bool {
	return r.enabled
}

// burst is at least 1 so fractional rates still admit requests
func burst(requestsPerSecond float64) int {
	return int(math.Max(1, math.Floor(requestsPerSecond)))
}
