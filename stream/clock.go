package stream

import "sync/atomic"

// Clock hands out the strictly increasing sequence numbers intake stamps
// onto events as they arrive. Wall-clock times on the wire come from the
// emitting binary and may repeat or stall; the sequence is what preserves
// arrival order once events cross goroutines on the consuming side.
//
// Thread-safety: safe for concurrent use. Intake typically stamps from one
// goroutine, but nothing depends on that.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and advances the clock.
// Each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last handed-out sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
