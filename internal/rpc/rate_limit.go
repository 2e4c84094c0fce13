package rpc

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL    = 10 * time.Minute
	defaultSweepEvery = 512
)

// RateLimitConfig controls per-client request throttling. Defaults are
// generous; the limiter exists to keep a runaway client from starving the
// host's poll cycle, not to shape traffic.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int

	// IdleTTL is how long a client's bucket survives without traffic before
	// it is eligible for eviction. Zero means the default (10 minutes).
	IdleTTL time.Duration
	// SweepEvery is the number of allow calls between eviction sweeps. Zero
	// means the default (512).
	SweepEvery uint64
}

// rateLimiter keeps one token bucket per client key. Buckets idle past the
// TTL are evicted on a periodic sweep so short-lived clients do not pile up.
type rateLimiter struct {
	limit      rate.Limit
	burst      int
	idleTTL    time.Duration
	sweepEvery uint64

	mu    sync.Mutex
	byKey map[string]*rateLimitEntry
	hits  uint64
}

type rateLimitEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if !cfg.Enabled {
		return nil
	}
	idleTTL := cfg.IdleTTL
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	sweepEvery := cfg.SweepEvery
	if sweepEvery == 0 {
		sweepEvery = defaultSweepEvery
	}
	return &rateLimiter{
		limit:      rate.Limit(cfg.RPS),
		burst:      cfg.Burst,
		idleTTL:    idleTTL,
		sweepEvery: sweepEvery,
		byKey:      make(map[string]*rateLimitEntry),
	}
}

func (l *rateLimiter) allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.byKey[key]
	if !ok {
		entry = &rateLimitEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = entry
	}
	entry.lastSeen = now

	l.hits++
	if l.hits%l.sweepEvery == 0 {
		l.evictIdle(now)
	}
	return entry.limiter.AllowN(now, 1)
}

func (l *rateLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for key, entry := range l.byKey {
		if entry.lastSeen.Before(cutoff) {
			delete(l.byKey, key)
		}
	}
}
