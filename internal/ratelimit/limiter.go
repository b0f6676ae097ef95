package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces venue requests by weight against a requests-per-period budget.
type RateLimiter struct {
	limiter *rate.Limiter
	burst   int
	metrics *Metrics
}

// Metrics tracks statistics about rate limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
	consumedWeight  atomic.Int64
}

// New creates a new RateLimiter with the specified number of requests allowed per period.
func New(requests int, period time.Duration) *RateLimiter {
	rps := float64(requests) / period.Seconds()
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), requests),
		burst:   requests,
		metrics: &Metrics{},
	}
}

// Wait blocks until a single-weight request is allowed or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.WaitN(ctx, 1)
}

// WaitN blocks until a request of the given weight is allowed or the context is cancelled.
// Weights above the burst are clamped to the burst.
func (r *RateLimiter) WaitN(ctx context.Context, weight int) error {
	weight = max(1, min(weight, r.burst))

	r.metrics.totalRequests.Add(1)
	if err := r.limiter.WaitN(ctx, weight); err != nil {
		r.metrics.deniedRequests.Add(1)
		return err
	}
	r.metrics.allowedRequests.Add(1)
	r.metrics.consumedWeight.Add(int64(weight))
	return nil
}

// Allow returns true if a single-weight request is permitted immediately.
func (r *RateLimiter) Allow() bool {
	r.metrics.totalRequests.Add(1)
	allowed := r.limiter.Allow()
	if allowed {
		r.metrics.allowedRequests.Add(1)
		r.metrics.consumedWeight.Add(1)
	} else {
		r.metrics.deniedRequests.Add(1)
	}
	return allowed
}

// Metrics returns a snapshot of the current rate limiter statistics.
func (r *RateLimiter) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   r.metrics.totalRequests.Load(),
		AllowedRequests: r.metrics.allowedRequests.Load(),
		DeniedRequests:  r.metrics.deniedRequests.Load(),
		ConsumedWeight:  r.metrics.consumedWeight.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of rate limiter statistics.
type MetricsSnapshot struct {
	TotalRequests   int64
	AllowedRequests int64
	DeniedRequests  int64
	// ConsumedWeight is the sum of the weights of allowed requests.
	ConsumedWeight int64
}
