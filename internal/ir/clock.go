package ir

import "time"

// Clock supplies wall-clock time for TTL checks and timestamps.
// Production code uses SystemClock; tests substitute a controllable clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
