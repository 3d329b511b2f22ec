// Package stats derives consistency, streak and ranking figures for build
// habits from the tracking ledger. Every function takes today explicitly and
// reads no clock.
package stats

import (
	"math"
	"time"

	"kaizen/internal/dates"
	"kaizen/internal/ledger"
	"kaizen/internal/types"
)

// DefaultWindowDays is the trailing window used for current consistency
const DefaultWindowDays = 30

// HabitStats is the derived view of one build habit
type HabitStats struct {
	HabitID            string         `json:"habitId"`
	Name               string         `json:"name"`
	CurrentConsistency int            `json:"currentConsistency"`
	YearlyAverage      int            `json:"yearlyAvg"`
	Target             int            `json:"targetConsistency"`
	Gap                int            `json:"gap"`
	Status             Status         `json:"status"`
	Grade              Grade          `json:"grade"`
	BestMonth          string         `json:"bestMonth"`
	BestMonthCount     int            `json:"bestMonthCount"`
	Recommendation     Recommendation `json:"recommendation"`
	LiveStreak         int            `json:"liveStreak"`
	LongestStreak      int            `json:"longestStreak"`
	StreakGoal         int            `json:"streakGoal"`
	StreakGoalMet      bool           `json:"streakGoalMet"`
	WeeklyCompleted    int            `json:"weeklyCompleted"`
	WeeklyGoal         int            `json:"weeklyGoal"`
	TotalCompletions   int            `json:"totalCompletions"`
	CompletedToday     bool           `json:"completedToday"`
}

// Compute derives the stats of habit h over the default window
func Compute(h types.Habit, l ledger.Ledger, today time.Time) HabitStats {
	return ComputeWindow(h, l, today, DefaultWindowDays)
}

// ComputeWindow derives the stats of habit h using a trailing window of
// windowDays ending today inclusive. Non-positive windows fall back to the
// default.
func ComputeWindow(h types.Habit, l ledger.Ledger, today time.Time, windowDays int) HabitStats {
	consistency := Consistency(l, h.ID, today, windowDays)
	month, monthCount := BestMonth(l, h.ID, today)
	live := LiveStreak(l, h.ID, today)

	s := HabitStats{
		HabitID:            h.ID,
		Name:               h.Name,
		CurrentConsistency: consistency,
		YearlyAverage:      YearlyAverage(l, h.ID, today),
		Target:             h.TargetConsistency,
		Gap:                consistency - h.TargetConsistency,
		Status:             StatusFor(consistency, h.TargetConsistency),
		Grade:              GradeFor(consistency),
		BestMonth:          month,
		BestMonthCount:     monthCount,
		Recommendation:     RecommendationFor(consistency),
		LiveStreak:         live,
		LongestStreak:      LongestStreak(l, h.ID),
		WeeklyCompleted:    WeeklyProgress(l, h.ID, today),
		WeeklyGoal:         h.GoalFrequency,
		TotalCompletions:   len(l.CompletionDates(h.ID)),
		CompletedToday:     l.IsCompleteAt(h.ID, today),
	}
	if h.Build != nil && h.Build.StreakGoal > 0 {
		s.StreakGoal = h.Build.StreakGoal
		s.StreakGoalMet = live >= h.Build.StreakGoal
	}
	return s
}

// CompletionsInWindow counts completed days in [today-windowDays+1, today]
func CompletionsInWindow(l ledger.Ledger, habitID string, today time.Time, windowDays int) int {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	count := 0
	for i := 0; i < windowDays; i++ {
		if l.IsCompleteAt(habitID, dates.AddDays(today, -i)) {
			count++
		}
	}
	return count
}

// Consistency is round(100 * completions in window / window length)
func Consistency(l ledger.Ledger, habitID string, today time.Time, windowDays int) int {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return percent(CompletionsInWindow(l, habitID, today, windowDays), windowDays)
}

// YearlyAverage is the year-to-date completion rate: completions from
// January 1 through today divided by today's ordinal day of the year.
func YearlyAverage(l ledger.Ledger, habitID string, today time.Time) int {
	first := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
	from, to := dates.Key(first), dates.Key(today)

	count := 0
	for _, date := range l.CompletionDates(habitID) {
		if date >= from && date <= to {
			count++
		}
	}
	return percent(count, dates.DayOfYear(today))
}

// BestMonth returns the YYYY-MM month with the most completions and that
// count. Months are visited in ascending order, so ties go to the earliest.
// A habit that was never completed reports the current month with zero.
func BestMonth(l ledger.Ledger, habitID string, today time.Time) (string, int) {
	counts := make(map[string]int)
	var order []string
	for _, date := range l.CompletionDates(habitID) {
		if len(date) < len(dates.MonthLayout) {
			continue
		}
		month := date[:len(dates.MonthLayout)]
		if _, seen := counts[month]; !seen {
			order = append(order, month)
		}
		counts[month]++
	}

	best, bestCount := dates.MonthKey(today), 0
	for _, month := range order {
		if counts[month] > bestCount {
			best, bestCount = month, counts[month]
		}
	}
	return best, bestCount
}

// LiveStreak counts consecutive completed days ending today. When today is
// not yet complete the count starts from yesterday, so an open day does not
// read as a broken streak. Otherwise the streak is zero.
func LiveStreak(l ledger.Ledger, habitID string, today time.Time) int {
	cursor := dates.StartOfDay(today)
	if !l.IsCompleteAt(habitID, cursor) {
		cursor = dates.AddDays(cursor, -1)
		if !l.IsCompleteAt(habitID, cursor) {
			return 0
		}
	}

	streak := 0
	for l.IsCompleteAt(habitID, cursor) {
		streak++
		cursor = dates.AddDays(cursor, -1)
	}
	return streak
}

// LongestStreak is the longest run of consecutive completed days anywhere in
// the ledger
func LongestStreak(l ledger.Ledger, habitID string) int {
	longest, run := 0, 0
	var prev time.Time
	for _, key := range l.CompletionDates(habitID) {
		day, err := dates.ParseKey(key, time.UTC)
		if err != nil {
			continue
		}
		if run > 0 && dates.DaysBetween(prev, day) == 1 {
			run++
		} else {
			run = 1
		}
		prev = day
		if run > longest {
			longest = run
		}
	}
	return longest
}

// WeeklyProgress counts completions from Monday of the current week through
// today
func WeeklyProgress(l ledger.Ledger, habitID string, today time.Time) int {
	count := 0
	for _, key := range dates.Range(dates.WeekStart(today), today) {
		if l.IsComplete(habitID, key) {
			count++
		}
	}
	return count
}

func percent(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}
