package snapshotcache

import (
	"time"
)

// Clock is an interface for getting the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc is a function type that implements the Clock interface.
type ClockFunc func() time.Time

// Now calls the function.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the default clock that uses time.Now.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time {
		return t
	})
}

// OffsetClock is a clock that shifts another clock by a fixed offset.
// It is useful to simulate the passage of time against persisted entries.
type OffsetClock struct {
	// Clock is the clock that provides the base time.
	Clock Clock

	// Offset is added to the base time.
	Offset time.Duration
}

// Now returns the base time plus the offset.
func (c *OffsetClock) Now() time.Time {
	return c.Clock.Now().Add(c.Offset)
}
