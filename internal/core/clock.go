package core

import "time"

// Clock supplies the current time. Month scoping always goes through a Clock
// so "current month" can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reports wall-clock time in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{Location: loc}
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// CurrentMonth is a shorthand for MonthOf(c.Now()).
func CurrentMonth(c Clock) Month {
	return MonthOf(c.Now())
}
