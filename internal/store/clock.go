package store

import (
	"sync/atomic"
	"time"
)

// Clock supplies operator_at timestamps in epoch milliseconds.
type Clock interface {
	Now() int64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int64

// Now calls f.
func (f ClockFunc) Now() int64 {
	return f()
}

// WallClock reads the system clock in epoch milliseconds.
//
// Readings never go backwards within a process: if the system clock steps
// back, the last returned value is repeated until real time catches up.
// Ties are expected and are broken by entry id.
//
// Thread-safety: WallClock is safe for concurrent use (atomic operations).
type WallClock struct {
	last atomic.Int64
}

// NewWallClock creates a wall clock.
func NewWallClock() *WallClock {
	return &WallClock{}
}

// Now returns the current time in epoch milliseconds, non-decreasing.
func (c *WallClock) Now() int64 {
	now := time.Now().UnixMilli()
	for {
		last := c.last.Load()
		if now <= last {
			return last
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}
