package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryRateLimitStore keeps one token bucket per key inside the process.
// It is the fallback when Redis is unreachable, so counts are per instance.
type MemoryRateLimitStore struct {
	limiters sync.Map // map[string]*memoryLimiter
	rps      float64
	burst    int
	now      func() time.Time
}

type memoryLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// NewMemoryRateLimitStore builds buckets refilled at rps with the given burst.
// A non-positive rps derives the rate from each call's limit and window.
func NewMemoryRateLimitStore(rps float64, burst int) *MemoryRateLimitStore {
	return &MemoryRateLimitStore{rps: rps, burst: burst, now: time.Now}
}

func (r *MemoryRateLimitStore) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	entry := r.getLimiter(key, limit, window)
	now := r.now()

	entry.mu.Lock()
	entry.lastSeen = now
	entry.mu.Unlock()

	return entry.limiter.AllowN(now, 1), nil
}

func (r *MemoryRateLimitStore) getLimiter(key string, limit int, window time.Duration) *memoryLimiter {
	if v, ok := r.limiters.Load(key); ok {
		return v.(*memoryLimiter)
	}

	rps := r.rps
	if rps <= 0 && window > 0 {
		rps = float64(limit) / window.Seconds()
	}
	burst := r.burst
	if burst <= 0 {
		burst = limit
	}
	if burst <= 0 {
		burst = 1
	}

	entry := &memoryLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
	actual, loaded := r.limiters.LoadOrStore(key, entry)
	if loaded {
		return actual.(*memoryLimiter)
	}
	return entry
}

// Cleanup forgets buckets idle for longer than maxIdle and returns how many
// were removed.
func (r *MemoryRateLimitStore) Cleanup(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	removed := 0
	r.limiters.Range(func(key, value any) bool {
		entry := value.(*memoryLimiter)
		entry.mu.Lock()
		idle := entry.lastSeen.Before(cutoff)
		entry.mu.Unlock()
		if idle {
			r.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
