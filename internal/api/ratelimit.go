package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-subject request rate.
type RateLimiter struct {
	mu                sync.Mutex
	limiters          map[string]*rate.Limiter
	requestsPerSecond int
	burstSize         int
}

func NewRateLimiter(rps, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 100
	}
	if burst <= 0 {
		burst = 2 * rps
	}
	return &RateLimiter{
		limiters:          make(map[string]*rate.Limiter),
		requestsPerSecond: rps,
		burstSize:         burst,
	}
}

func (rl *RateLimiter) Allow(subject string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Cap map growth; a reset is cheaper than an eviction policy at
	// this scale.
	if len(rl.limiters) >= 10000 {
		rl.limiters = make(map[string]*rate.Limiter)
	}

	limiter, exists := rl.limiters[subject]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(rl.requestsPerSecond), rl.burstSize)
		rl.limiters[subject] = limiter
	}
	return limiter.Allow()
}
