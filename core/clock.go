package core

import (
	"sync"
	"time"
)

// Clock supplies the current time to the ledger.
// This interface enables dependency injection for deterministic testing.
type Clock interface {
	// Now returns the current time. Successive calls must never go backwards.
	Now() time.Time
}

// SystemClock is the production clock
type SystemClock struct{}

// Now returns the local time with its monotonic reading, so deadline
// comparisons are unaffected by wall clock steps. Convert to UTC only for display.
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a clock that only moves when told to.
// It is used by tests and local harnesses to simulate the passage of time.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock starting at start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t unless t is earlier than the current time.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	if t.After(c.now) {
		c.now = t
	}
	c.mu.Unlock()
}
