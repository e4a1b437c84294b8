// Package chain provides shared plumbing for ledger access.
package chain

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter applies token-bucket limiting per RPC method, so a tight
// receipt-polling loop cannot starve unrelated calls.
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing ratePerSecond sustained
// requests per method with the given burst.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(ratePerSecond),
		burst:    burst,
	}
}

// DefaultRateLimiter returns a limiter sized for public node endpoints.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(5, 10)
}

// Wait blocks until a request for method is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, method string) error {
	return r.limiterFor(method).Wait(ctx)
}

// Allow reports whether a request for method may proceed immediately.
func (r *RateLimiter) Allow(method string) bool {
	return r.limiterFor(method).Allow()
}

func (r *RateLimiter) limiterFor(method string) *rate.Limiter {
	r.mu.RLock()
	limiter, ok := r.limiters[method]
	r.mu.RUnlock()
	if ok {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, ok = r.limiters[method]; ok {
		return limiter
	}

	limiter = rate.NewLimiter(r.limit, r.burst)
	r.limiters[method] = limiter
	return limiter
}
