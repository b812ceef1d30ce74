// Package ratelimit provides a keyed token bucket rate limiter.
// It supports both non-blocking (Allow) and blocking (Wait) operations.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
// Each unique key gets its own independent limiter; keys unused for longer
// than the idle timeout are evicted by Sweep.
type KeyedRateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*entry
	limit       rate.Limit
	burst       int
	idleTimeout time.Duration
	now         func() time.Time
}

// New creates a keyed rate limiter.
// rps: requests per second allowed per key.
// burst: maximum burst size (tokens available immediately).
func New(rps float64, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters:    make(map[string]*entry),
		limit:       rate.Limit(rps),
		burst:       max(burst, 1),
		idleTimeout: 10 * time.Minute,
		now:         time.Now,
	}
}

// Allow reports whether a call for key may happen now. Use for inbound protection.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.get(key).Allow()
}

// Wait blocks until a call for key is allowed or ctx is done. Use for outbound calls.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.get(key).Wait(ctx)
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.limiters)
}

// Sweep evicts keys idle for longer than the idle timeout and returns how many were removed.
func (krl *KeyedRateLimiter) Sweep() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	cutoff := krl.now().Add(-krl.idleTimeout)
	removed := 0
	for key, e := range krl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(krl.limiters, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle keys every interval until ctx is done.
func (krl *KeyedRateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			krl.Sweep()
		}
	}
}

func (krl *KeyedRateLimiter) get(key string) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	e, ok := krl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.limiters[key] = e
	}
	e.lastSeen = krl.now()
	return e.limiter
}
