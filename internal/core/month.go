package core

import (
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// Month is a year-month key ("2024-06") used to scope every ledger query.
// Keys sort chronologically when compared as strings.
type Month string

// MonthOf returns the month key of t in t's own location.
func MonthOf(t time.Time) Month {
	return Month(t.Format(monthLayout))
}

// ParseMonth validates a YYYY-MM key.
func ParseMonth(s string) (Month, error) {
	if len(s) != len(monthLayout) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month(s), nil
}

func (m Month) String() string {
	return string(m)
}
