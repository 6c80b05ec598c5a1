package engine

import "sync/atomic"

// cycleCounter numbers cycles with a strictly increasing sequence.
//
// Only cycles that pass the in-flight guard take a number, so skipped
// triggers never leave gaps.
//
// Thread-safety: safe for concurrent use (atomic operations).
type cycleCounter struct {
	seq atomic.Int64
}

// Next returns the next cycle number.
func (c *cycleCounter) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the number of the last cycle started.
func (c *cycleCounter) Current() int64 {
	return c.seq.Load()
}
