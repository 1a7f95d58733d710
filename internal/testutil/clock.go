package testutil

import "sync"

// DefaultEpochMillis is the first timestamp a DeterministicClock returns:
// 2025-01-01T00:00:00Z in epoch milliseconds.
const DefaultEpochMillis int64 = 1735689600000

// DeterministicClock is a thread-safe fake millisecond clock for tests.
//
// Each call to Now() advances the clock by a fixed step, so a scenario run
// twice produces identical operator_at values. It satisfies store.Clock.
type DeterministicClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	now   int64
}

// NewDeterministicClock creates a clock whose first Now() returns
// DefaultEpochMillis and advances by one millisecond per call.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultEpochMillis, 1)
}

// NewDeterministicClockAt creates a clock whose first Now() returns start
// and advances by step per call. A step below 1 is treated as 1.
func NewDeterministicClockAt(start, step int64) *DeterministicClock {
	if step < 1 {
		step = 1
	}
	return &DeterministicClock{start: start, step: step, now: start - step}
}

// Now advances the clock and returns the new time in epoch milliseconds.
func (c *DeterministicClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += c.step
	return c.now
}

// Current returns the last value returned by Now without advancing.
// Before the first Now call it returns start minus one step.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock so the next Now() returns start again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start - c.step
}
