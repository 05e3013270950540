// Package testutil provides deterministic substitutes for the time and ID
// sources the tooling depends on, so tests and golden files stay stable.
package testutil

import (
	"sync"
	"time"
)

// TickingClock is a fake time source that advances by a fixed step on every
// Now call. Reporters take its Now in place of time.Now so timestamps and
// elapsed values in golden output never wobble.
//
// Thread-safety: all methods are safe for concurrent use.
type TickingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewTickingClock starts a clock at start, advancing step per Now call.
func NewTickingClock(start time.Time, step time.Duration) *TickingClock {
	return &TickingClock{now: start, step: step}
}

// Now returns the current fake time, then advances the clock by one step.
func (c *TickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
