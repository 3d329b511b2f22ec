// Package quit models the abstinence journey of quit habits: the live clean
// counter, relapse history, journey start and the derived projections.
package quit

import (
	"strings"
	"time"

	"kaizen/internal/dates"
	"kaizen/internal/types"
)

// ElapsedSince decomposes now - since, clamped to zero
func ElapsedSince(since, now time.Time) dates.Elapsed {
	return dates.ElapsedSince(since, now)
}

// CurrentStreakSeconds is the clean time since the last reset
func CurrentStreakSeconds(q types.QuitSpec, now time.Time) int64 {
	return dates.SecondsBetween(q.QuitDate, now)
}

// JourneyStart is the earliest of the first quit attempt and every logged
// relapse, so tallies keep the days before the most recent reset.
func JourneyStart(q types.QuitSpec) time.Time {
	start := q.QuitDate
	if q.OriginalQuitDate != nil {
		start = *q.OriginalQuitDate
	}
	for _, rec := range q.History {
		if rec.Date.Before(start) {
			start = rec.Date
		}
	}
	return start
}

// LogRelapse returns a copy of h with a relapse at the given moment. The
// record duration is the clean time since the current quit date, clamped to
// zero. The first relapse pins OriginalQuitDate; later ones never touch it.
// The quit date moves to the relapse unless that would put it before
// OriginalQuitDate. Build habits are returned unchanged.
func LogRelapse(h types.Habit, at time.Time, trigger string) types.Habit {
	if !h.IsQuit() {
		return h
	}

	out := h.Clone()
	q := out.Quit

	rec := types.RelapseRecord{
		Date:            at,
		DurationSeconds: dates.SecondsBetween(q.QuitDate, at),
		Trigger:         strings.TrimSpace(trigger),
	}
	q.History = append([]types.RelapseRecord{rec}, q.History...)

	if q.OriginalQuitDate == nil {
		original := q.QuitDate
		q.OriginalQuitDate = &original
	}
	if !at.Before(*q.OriginalQuitDate) {
		q.QuitDate = at
	}
	return out
}

// BestStreakEver is the longest clean stretch in seconds, counting both the
// recorded relapse durations and the streak still running
func BestStreakEver(q types.QuitSpec, now time.Time) int64 {
	best := CurrentStreakSeconds(q, now)
	for _, rec := range q.History {
		if rec.DurationSeconds > best {
			best = rec.DurationSeconds
		}
	}
	return best
}

// MoneySaved projects the daily cost linearly over the current clean
// streak. It is zero when no cost is set.
func MoneySaved(q types.QuitSpec, now time.Time) float64 {
	if q.QuitCostPerDay == nil {
		return 0
	}
	return float64(CurrentStreakSeconds(q, now)) / 86400 * *q.QuitCostPerDay
}
