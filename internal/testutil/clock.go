package testutil

import (
	"sync"
	"time"
)

// FixedClock provides a thread-safe deterministic time source for tests.
//
// Each call to Now() returns the current instant and advances it by a
// fixed step, so successive checkpoints get distinct, reproducible
// timestamps. Unlike the engine's system clock, FixedClock can be reset
// for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	step  time.Duration
}

// NewFixedClock creates a clock that starts at start and advances by
// step on every Now() call. A zero step freezes the clock.
func NewFixedClock(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{start: start, now: start, step: step}
}

// Now returns the current instant and advances the clock by one step.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Current returns the instant the next Now() call will report, without
// advancing.
func (c *FixedClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its start instant.
func (c *FixedClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
