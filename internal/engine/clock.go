package engine

import "sync/atomic"

// Clock is a monotonic logical clock for journal ordering.
//
// Every journaled session start, input event and session end is stamped
// with a strictly increasing seq from this clock. Ordering never depends on
// wall time, so replay reproduces the same sequence numbers.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// However, the Controller's single-goroutine design means only one goroutine
// typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume after the last journaled seq, and by replay.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
