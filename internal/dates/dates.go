// Package dates holds the civil-date helpers shared by the tracking engines.
// A date key is the local calendar date of a moment, formatted YYYY-MM-DD,
// and is never shifted through UTC.
package dates

import (
	"fmt"
	"time"
)

const (
	// KeyLayout is the layout of ledger date keys
	KeyLayout = "2006-01-02"
	// MonthLayout is the layout of month keys used for best-month ranking
	MonthLayout = "2006-01"
)

// Key returns the ledger key for the civil date of t in t's own location
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// MonthKey returns the YYYY-MM key for the civil month of t
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// ParseKey parses a ledger key as midnight in loc
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(KeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// StartOfDay returns local midnight of the civil date of t
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays moves a civil date by n calendar days. AddDate keeps the wall
// clock, so DST transitions do not shift the date.
func AddDays(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b (b - a)
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// DayOfYear is the 1-based ordinal day of t within its year
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// SameDay reports whether a and b fall on the same civil date in loc
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc != nil {
		a, b = a.In(loc), b.In(loc)
	}
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Range returns every date key from start to end inclusive. It returns nil
// when end precedes start.
func Range(start, end time.Time) []string {
	n := DaysBetween(start, end)
	if n < 0 {
		return nil
	}
	keys := make([]string, 0, n+1)
	for i := 0; i <= n; i++ {
		keys = append(keys, Key(AddDays(start, i)))
	}
	return keys
}

// WeekStart returns the Monday on or before t
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return AddDays(t, -offset)
}
