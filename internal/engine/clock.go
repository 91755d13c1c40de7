package engine

import "sync/atomic"

// Clock is the engine's global version: a monotonic logical clock.
//
// Every entity mutation and every registration (component, query, action,
// rule, trigger, player) advances it. Memoized values remember the version
// they were computed at and are stale once the clock has moved past it.
// Reads never advance the clock.
//
// The engine is single-threaded; the atomic only keeps Current() safe for
// diagnostics taken from other goroutines.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific version.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new version.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current version without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Stale reports whether a value recorded at version v is out of date.
func (c *Clock) Stale(v int64) bool {
	return c.Current() > v
}
