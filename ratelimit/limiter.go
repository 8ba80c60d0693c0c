// Package ratelimit throttles log records emitted while firing events.
//
// Events that fire often but still declare a firing level can flood the
// log. The manager can be given a Keyed limiter that keeps one token bucket
// per event id, so a burst of one event type never silences another.
//
// # Basic Usage
//
//	// 10 records/second per event id, with a burst of 20
//	limiter := ratelimit.NewKeyed(10, 20)
//	mgr := event.New(event.WithLogLimiter(limiter))
//
// A single TokenBucket can also be used directly:
//
//	bucket := ratelimit.NewTokenBucket(100, 10)
//	if bucket.Allow(ctx) {
//	    // emit
//	}
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// TokenBucket implements a local token bucket rate limiter on top of
// golang.org/x/time/rate.
//
//   - Tokens are added at the specified rate (rps)
//   - A maximum of 'burst' tokens can accumulate
//   - Each event consumes one token
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a new token bucket rate limiter.
// A non-positive rps means no limit.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	return &TokenBucket{
		limiter: rate.NewLimiter(limitOf(rps), burst),
	}
}

// Allow returns true if an event can happen right now.
// Consumes one token if available.
func (t *TokenBucket) Allow(ctx context.Context) bool {
	return t.limiter.Allow()
}

// SetLimit changes the rate and burst in place. A non-positive rps means
// no limit.
func (t *TokenBucket) SetLimit(rps float64, burst int) {
	t.limiter.SetLimit(limitOf(rps))
	t.limiter.SetBurst(burst)
}

// Limit returns the current rate in events per second.
func (t *TokenBucket) Limit() float64 {
	return float64(t.limiter.Limit())
}

// Burst returns the current burst size.
func (t *TokenBucket) Burst() int {
	return t.limiter.Burst()
}

func limitOf(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Inf
	}
	return rate.Limit(rps)
}

// Keyed keeps an independent token bucket per key.
type Keyed struct {
	mu      sync.Mutex
	rps     float64
	burst   int
	buckets map[string]*TokenBucket
}

// NewKeyed creates a keyed limiter whose buckets all share rps and burst.
func NewKeyed(rps float64, burst int) *Keyed {
	if burst <= 0 {
		burst = 1
	}
	return &Keyed{
		rps:     rps,
		burst:   burst,
		buckets: make(map[string]*TokenBucket),
	}
}

// Bucket returns the bucket for key, creating it on first use.
func (k *Keyed) Bucket(key string) *TokenBucket {
	k.mu.Lock()
	defer k.mu.Unlock()
	b, ok := k.buckets[key]
	if !ok {
		b = NewTokenBucket(k.rps, k.burst)
		k.buckets[key] = b
	}
	return b
}

// Allow consumes a token from the bucket for key.
func (k *Keyed) Allow(ctx context.Context, key string) bool {
	return k.Bucket(key).Allow(ctx)
}

// Len returns the number of keys seen so far.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// SetLimit changes rps and burst for every existing bucket and for buckets
// created later.
func (k *Keyed) SetLimit(rps float64, burst int) {
	if burst <= 0 {
		burst = 1
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rps, k.burst = rps, burst
	for _, b := range k.buckets {
		b.SetLimit(rps, burst)
	}
}

// Limit returns the configured rps and burst.
func (k *Keyed) Limit() (float64, int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.rps, k.burst
}

// Reset forgets every bucket.
func (k *Keyed) Reset() {
	k.mu.Lock()
	k.buckets = make(map[string]*TokenBucket)
	k.mu.Unlock()
}
