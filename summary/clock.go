package summary

import "time"

// Clock is a wall-clock time source, injectable so tests can control
// rotation and createdTimestamp behavior deterministically.
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock, backed by time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts an ordinary function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
