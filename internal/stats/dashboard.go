package stats

import (
	"math"
	"sort"
	"time"

	"kaizen/internal/ledger"
	"kaizen/internal/types"
)

// RankEntry is one row of the consistency ranking
type RankEntry struct {
	Rank        int    `json:"rank"`
	HabitID     string `json:"habitId"`
	Name        string `json:"name"`
	Consistency int    `json:"consistency"`
	Grade       Grade  `json:"grade"`
	BestMonth   string `json:"bestMonth"`
}

// Dashboard aggregates build-habit stats across the habit list
type Dashboard struct {
	Habits             []HabitStats `json:"habits"`
	Ranking            []RankEntry  `json:"ranking"`
	AverageConsistency int          `json:"averageConsistency"`
	OnTrack            int          `json:"onTrack"`
	CompletedToday     int          `json:"completedToday"`
	BestLiveStreak     int          `json:"bestLiveStreak"`
	BestStreakHabitID  string       `json:"bestStreakHabitId,omitempty"`
	OverallGrade       Grade        `json:"overallGrade"`
}

// BuildDashboard computes stats for every build habit in habits. Quit habits
// are skipped; they have their own journey summary.
func BuildDashboard(habits []types.Habit, l ledger.Ledger, today time.Time, windowDays int) Dashboard {
	d := Dashboard{
		Habits:       []HabitStats{},
		Ranking:      []RankEntry{},
		OverallGrade: GradeF,
	}

	total := 0
	for _, h := range habits {
		if !h.IsBuild() {
			continue
		}
		s := ComputeWindow(h, l, today, windowDays)
		d.Habits = append(d.Habits, s)

		total += s.CurrentConsistency
		if s.Status == StatusOnTrack {
			d.OnTrack++
		}
		if s.CompletedToday {
			d.CompletedToday++
		}
		if s.LiveStreak > d.BestLiveStreak {
			d.BestLiveStreak = s.LiveStreak
			d.BestStreakHabitID = s.HabitID
		}
	}

	if len(d.Habits) == 0 {
		return d
	}

	d.AverageConsistency = int(math.Round(float64(total) / float64(len(d.Habits))))
	d.OverallGrade = GradeFor(d.AverageConsistency)
	d.Ranking = Rank(d.Habits)
	return d
}

// Rank orders habit stats by consistency, highest first. Equal consistency
// keeps the input order.
func Rank(all []HabitStats) []RankEntry {
	sorted := make([]HabitStats, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CurrentConsistency > sorted[j].CurrentConsistency
	})

	out := make([]RankEntry, len(sorted))
	for i, s := range sorted {
		out[i] = RankEntry{
			Rank:        i + 1,
			HabitID:     s.HabitID,
			Name:        s.Name,
			Consistency: s.CurrentConsistency,
			Grade:       s.Grade,
			BestMonth:   s.BestMonth,
		}
	}
	return out
}
