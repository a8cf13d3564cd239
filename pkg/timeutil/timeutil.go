// Package timeutil provides UTC calendar utilities for MoodGarden Hub.
// Leaderboard periods are defined in UTC regardless of where a user checks in,
// so every helper here normalizes to UTC before truncating.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns the first instant of the month in UTC.
func StartOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// TruncateToDate drops the time-of-day component, keeping a UTC midnight value.
// Used for date-only column comparisons (DATE vs TIMESTAMPTZ).
func TruncateToDate(t time.Time) time.Time {
	return StartOfDay(t)
}
