// Package ratelimit implements the fixed-point leaky bucket each generator
// worker uses to pace its emission rate, grounded on
// original_source/main.cpp's CLeakyBucket usage in GenerateTxs. Unlike
// golang.org/x/time/rate's blocking token bucket, callers need a
// non-blocking TryLeak that exposes its raw capacity/level/fill-rate state —
// a contract spec.md §8 pins down exactly, so the bucket is implemented
// directly rather than wrapped around a borrowed rate limiter.
package ratelimit

import "time"

// LeakyBucket holds rateCtrl's fixed-point capacity/level/fill-rate state.
// It is not safe for concurrent use — each generator worker owns its own
// instance, never shared across goroutines.
type LeakyBucket struct {
	capacity uint64
	fillRate uint64 // units per second, already scaled by the caller's fixed point
	level    uint64
	last     time.Time
}

// New constructs a bucket with an initial level and refill rate, matching
// CLeakyBucket(capacity, initial, fill_rate).
func New(capacity, initial, fillRate uint64) *LeakyBucket {
	return &LeakyBucket{
		capacity: capacity,
		level:    initial,
		fillRate: fillRate,
		last:     time.Now(),
	}
}

// refill tops up the level based on elapsed wall-clock time, capped at capacity.
func (b *LeakyBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now
	if elapsed <= 0 {
		return
	}
	added := uint64(elapsed * float64(b.fillRate))
	b.level += added
	if b.level > b.capacity {
		b.level = b.capacity
	}
}

// TryLeak attempts to drain n units from the bucket. It returns false
// without blocking if the bucket doesn't currently hold enough.
func (b *LeakyBucket) TryLeak(n uint64) bool {
	b.refill()
	if b.level < n {
		return false
	}
	b.level -= n
	return true
}

// Level reports the bucket's current level, for tests and diagnostics.
func (b *LeakyBucket) Level() uint64 {
	return b.level
}
