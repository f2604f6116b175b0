// Package ratelimiter keeps one token bucket per identity.
package ratelimiter

import (
	"sync"
	"time"
)

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	rate       float64 // tokens per second
	lastRefill time.Time
	lastSeen   time.Time
}

func (b *bucket) allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (b *bucket) idleSince(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastSeen)
}

// UserRateLimiter manages buckets for many identities. Buckets idle for
// longer than the expiration are dropped by a background sweep.
type UserRateLimiter struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	rate       float64
	capacity   float64
	expiration time.Duration
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter refilling rate tokens per second up to capacity.
func New(rate, capacity float64, expiration time.Duration) *UserRateLimiter {
	rl := &UserRateLimiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		capacity:   capacity,
		expiration: expiration,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if expiration > 0 {
		go rl.sweepLoop()
	}
	return rl
}

// PerMinute allows n requests per minute with a burst of n.
func PerMinute(n int, expiration time.Duration) *UserRateLimiter {
	return New(float64(n)/60, float64(n), expiration)
}

func (rl *UserRateLimiter) get(identity string) *bucket {
	rl.mu.RLock()
	b, ok := rl.buckets[identity]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok = rl.buckets[identity]; ok {
		return b
	}
	now := rl.now()
	b = &bucket{
		tokens:     rl.capacity,
		capacity:   rl.capacity,
		rate:       rl.rate,
		lastRefill: now,
		lastSeen:   now,
	}
	rl.buckets[identity] = b
	return b
}

// Allow reports whether identity may proceed and consumes a token if so.
func (rl *UserRateLimiter) Allow(identity string) bool {
	return rl.get(identity).allow(rl.now())
}

// Len returns the number of tracked identities.
func (rl *UserRateLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.buckets)
}

func (rl *UserRateLimiter) sweep() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, b := range rl.buckets {
		if b.idleSince(now) > rl.expiration {
			delete(rl.buckets, id)
		}
	}
}

func (rl *UserRateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.expiration)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// Stop terminates the background sweep. Safe to call more than once.
func (rl *UserRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
