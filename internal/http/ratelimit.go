package httpapi

import (
	"sync"
	"time"
)

// Idle buckets older than this are evicted on the next Allow call so
// one-off creators do not accumulate forever.
const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// rateLimiter is a per-client-IP token bucket guarding link creation.
type rateLimiter struct {
	mu    sync.Mutex
	rps   float64
	burst int
	bkts  map[string]*bucket
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{rps: rps, burst: burst, bkts: make(map[string]*bucket)}
}

func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	bkt, ok := rl.bkts[key]
	if !ok {
		rl.prune(now)
		bkt = &bucket{tokens: float64(rl.burst), lastRefill: now}
		rl.bkts[key] = bkt
	}

	elapsed := now.Sub(bkt.lastRefill).Seconds()
	bkt.tokens = min(float64(rl.burst), bkt.tokens+elapsed*rl.rps)
	bkt.lastRefill = now

	if bkt.tokens >= 1 {
		bkt.tokens--
		return true
	}
	return false
}

// prune drops buckets idle past bucketIdleTTL. Caller holds mu.
func (rl *rateLimiter) prune(now time.Time) {
	for key, bkt := range rl.bkts {
		if now.Sub(bkt.lastRefill) > bucketIdleTTL {
			delete(rl.bkts, key)
		}
	}
}
