package utils

import (
	"fmt"
	"time"
)

// ParseSowingDate accepts either a bare ISO date or a full RFC3339 timestamp.
func ParseSowingDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}
	return t.UTC(), nil
}

// HoursSince converts the age of a timestamp into fractional hours, never
// negative.
func HoursSince(t, now time.Time) float64 {
	if t.IsZero() || t.After(now) {
		return 0
	}
	return now.Sub(t).Hours()
}
