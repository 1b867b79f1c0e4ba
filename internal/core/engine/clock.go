package engine

import "time"

// Clock reports the current time in seconds. Only differences between readings
// matter to the engine.
type Clock interface {
	Now() float64
}

// RealClock is a monotonic wall clock starting at zero when created.
type RealClock struct {
	start time.Time
}

func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

func (c *RealClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() float64

func (f ClockFunc) Now() float64 { return f() }
