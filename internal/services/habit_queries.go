package services

import (
	"kaizen/internal/dates"
	trackerrors "kaizen/internal/infrastructure/errors"
	"kaizen/internal/quit"
	"kaizen/internal/stats"
	"kaizen/internal/types"
)

// Stats derives the statistics of a build habit as of now
func (ht *HabitTracker) Stats(habitID string) (stats.HabitStats, error) {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	idx, err := ht.findLocked("Stats", habitID)
	if err != nil {
		return stats.HabitStats{}, err
	}
	h := ht.state.Habits[idx]
	if !h.IsBuild() {
		return stats.HabitStats{}, kindMismatch("Stats", h, types.HabitKindBuild)
	}
	return stats.ComputeWindow(h, ht.book, ht.now(), ht.config.WindowDays), nil
}

// Dashboard aggregates every build habit as of now
func (ht *HabitTracker) Dashboard() stats.Dashboard {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()
	return stats.BuildDashboard(ht.state.Habits, ht.book, ht.now(), ht.config.WindowDays)
}

// QuitSummary derives the journey summary of a quit habit as of now
func (ht *HabitTracker) QuitSummary(habitID string) (quit.Summary, error) {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	idx, err := ht.findLocked("QuitSummary", habitID)
	if err != nil {
		return quit.Summary{}, err
	}
	h := ht.state.Habits[idx]
	summary, ok := quit.Summarize(h, ht.now())
	if !ok {
		return quit.Summary{}, kindMismatch("QuitSummary", h, types.HabitKindQuit)
	}
	return summary, nil
}

// QuitSummaries returns the summary of every quit habit in list order
func (ht *HabitTracker) QuitSummaries() []quit.Summary {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	now := ht.now()
	out := []quit.Summary{}
	for _, h := range ht.state.Habits {
		if summary, ok := quit.Summarize(h, now); ok {
			out = append(out, summary)
		}
	}
	return out
}

// Heatmap classifies every day of a quit habit's journey
func (ht *HabitTracker) Heatmap(habitID string) (quit.Heatmap, error) {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	idx, err := ht.findLocked("Heatmap", habitID)
	if err != nil {
		return quit.Heatmap{}, err
	}
	h := ht.state.Habits[idx]
	if !h.IsQuit() {
		return quit.Heatmap{}, kindMismatch("Heatmap", h, types.HabitKindQuit)
	}
	return quit.BuildHeatmap(*h.Quit, ht.now()), nil
}

// CompletedOn returns the habit ids completed on the civil date of the
// given key. Unknown date keys yield an empty list.
func (ht *HabitTracker) CompletedOn(date string) ([]string, error) {
	if _, err := dates.ParseKey(date, nil); err != nil {
		return nil, trackerrors.HandleValidationError("CompletedOn", "date", err)
	}
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()
	return ht.book.CompletedOn(date), nil
}
