package dates

import (
	"fmt"
	"strings"
	"time"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// Elapsed is a floor decomposition of a non-negative number of seconds
type Elapsed struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// Decompose splits seconds into days, hours, minutes and seconds. Negative
// input is clamped to zero.
func Decompose(seconds int64) Elapsed {
	if seconds < 0 {
		seconds = 0
	}
	return Elapsed{
		Days:    seconds / secondsPerDay,
		Hours:   (seconds % secondsPerDay) / secondsPerHour,
		Minutes: (seconds % secondsPerHour) / secondsPerMinute,
		Seconds: seconds % secondsPerMinute,
	}
}

// SecondsBetween returns whole seconds from start to end, clamped to >= 0
func SecondsBetween(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// ElapsedSince decomposes now - since, clamped to >= 0
func ElapsedSince(since, now time.Time) Elapsed {
	return Decompose(SecondsBetween(since, now))
}

// TotalSeconds folds the decomposition back into seconds
func (e Elapsed) TotalSeconds() int64 {
	return e.Days*secondsPerDay + e.Hours*secondsPerHour + e.Minutes*secondsPerMinute + e.Seconds
}

// String renders the two or three most significant units, e.g. "3d 4h 12m"
func (e Elapsed) String() string {
	switch {
	case e.Days > 0:
		return fmt.Sprintf("%dd %dh %dm", e.Days, e.Hours, e.Minutes)
	case e.Hours > 0:
		return fmt.Sprintf("%dh %dm", e.Hours, e.Minutes)
	case e.Minutes > 0:
		return fmt.Sprintf("%dm %ds", e.Minutes, e.Seconds)
	default:
		return fmt.Sprintf("%ds", e.Seconds)
	}
}

// FormatSeconds renders a duration in seconds in long form, e.g.
// "2 days, 1 hour". Zero renders as "0 minutes".
func FormatSeconds(seconds int64) string {
	e := Decompose(seconds)
	var parts []string
	if e.Days > 0 {
		parts = append(parts, plural(e.Days, "day"))
	}
	if e.Hours > 0 {
		parts = append(parts, plural(e.Hours, "hour"))
	}
	if e.Minutes > 0 && e.Days == 0 {
		parts = append(parts, plural(e.Minutes, "minute"))
	}
	if len(parts) == 0 {
		return "0 minutes"
	}
	return strings.Join(parts, ", ")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
