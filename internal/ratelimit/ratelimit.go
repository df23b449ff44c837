// Package ratelimit provides token-bucket admission control for the Trello
// API client. Trello enforces 100 requests per 10 seconds per token; the
// defaults here stay under that with headroom for other consumers.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRate is the sustained request rate in tokens per second.
	DefaultRate = 8.0
	// DefaultBurst is the bucket capacity (and initial token count).
	DefaultBurst = 20
)

// Limiter is a token bucket with continuous replenishment. The bucket
// starts full, refills at Rate tokens per second, and never holds more
// than Burst tokens regardless of idle time. Safe for concurrent use.
type Limiter struct {
	limiter *rate.Limiter
	rps     float64
	burst   int
}

// Status is an observability snapshot of the bucket. It has no behavioral
// effect on admission.
type Status struct {
	Tokens      float64 `json:"tokens"`
	Capacity    int     `json:"capacity"`
	Rate        float64 `json:"rate"`
	Utilization float64 `json:"utilization_pct"`
}

// New creates a limiter with the given sustained rate (tokens/second) and
// burst capacity. Non-positive arguments fall back to the defaults.
func New(rps float64, burst int) *Limiter {
	if rps <= 0 {
		rps = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
	}
}

// Acquire blocks until a token is available or the timeout elapses.
// Returns true if a token was consumed. On timeout no token is consumed
// and false is returned; callers treat that as "could not proceed within
// budget", not as an error.
func (l *Limiter) Acquire(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return l.limiter.Wait(ctx) == nil
}

// AcquireContext is Acquire with caller-supplied cancellation.
func (l *Limiter) AcquireContext(ctx context.Context) bool {
	return l.limiter.Wait(ctx) == nil
}

// Status reports the current token count, capacity, rate, and utilization
// percentage (0 = full bucket, 100 = empty).
func (l *Limiter) Status() Status {
	tokens := l.limiter.Tokens()
	if tokens < 0 {
		tokens = 0
	}
	if tokens > float64(l.burst) {
		tokens = float64(l.burst)
	}
	return Status{
		Tokens:      tokens,
		Capacity:    l.burst,
		Rate:        l.rps,
		Utilization: (1 - tokens/float64(l.burst)) * 100,
	}
}
