package engine

import "sync/atomic"

// Clock is the logical clock that stamps Change.Seq.
//
// Every change applied through an Engine receives a strictly increasing
// sequence number. A character store resumes the clock from the last
// recorded seq (NewClockAt) so the change log stays totally ordered across
// requests without relying on wall-clock time.
//
// Clock is safe for concurrent use, although an Engine is request scoped and
// normally the only caller.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that continues after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
