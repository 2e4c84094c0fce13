package rpc

import (
	"testing"
	"time"
)

func TestRateLimiterDisabledIsNil(t *testing.T) {
	if l := newRateLimiter(RateLimitConfig{Enabled: false}); l != nil {
		t.Fatal("disabled config must produce a nil limiter")
	}
	var l *rateLimiter
	if !l.allow("anyone", time.Now()) {
		t.Fatal("nil limiter must allow everything")
	}
}

func TestRateLimiterDefaultsEvictionPolicy(t *testing.T) {
	l := newRateLimiter(RateLimitConfig{Enabled: true, RPS: 1, Burst: 1})
	if l.idleTTL != defaultIdleTTL {
		t.Fatalf("idle TTL: %v", l.idleTTL)
	}
	if l.sweepEvery != defaultSweepEvery {
		t.Fatalf("sweep stride: %d", l.sweepEvery)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	l := newRateLimiter(RateLimitConfig{
		Enabled: true, RPS: 100, Burst: 100,
		IdleTTL:    time.Minute,
		SweepEvery: 4,
	})

	start := time.Now()
	l.allow("stale", start)
	if len(l.byKey) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(l.byKey))
	}

	// Three more calls past the TTL land on the sweep stride and evict the
	// stale bucket.
	later := start.Add(2 * time.Minute)
	l.allow("fresh", later)
	l.allow("fresh", later)
	l.allow("fresh", later)
	if _, ok := l.byKey["stale"]; ok {
		t.Fatal("expected stale bucket evicted")
	}
	if _, ok := l.byKey["fresh"]; !ok {
		t.Fatal("active bucket must survive the sweep")
	}
}

func TestRateLimiterKeepsActiveClients(t *testing.T) {
	l := newRateLimiter(RateLimitConfig{
		Enabled: true, RPS: 100, Burst: 100,
		IdleTTL:    time.Minute,
		SweepEvery: 2,
	})

	now := time.Now()
	for i := 0; i < 10; i++ {
		l.allow("busy", now.Add(time.Duration(i)*time.Second))
	}
	if _, ok := l.byKey["busy"]; !ok {
		t.Fatal("continuously active bucket must never be evicted")
	}
}
