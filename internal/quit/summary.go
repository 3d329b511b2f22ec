package quit

import (
	"time"

	"kaizen/internal/dates"
	"kaizen/internal/types"
)

// Summary is the full derived view of one quit habit
type Summary struct {
	HabitID           string         `json:"habitId"`
	Name              string         `json:"name"`
	QuitDate          time.Time      `json:"quitDate"`
	JourneyStart      time.Time      `json:"journeyStart"`
	Current           dates.Elapsed  `json:"current"`
	CurrentSeconds    int64          `json:"currentSeconds"`
	BestStreakSeconds int64          `json:"bestStreakSeconds"`
	MoneySaved        float64        `json:"moneySaved"`
	Relapses          int            `json:"relapses"`
	SuccessDays       int            `json:"successDays"`
	RelapseDays       int            `json:"relapseDays"`
	Triggers          []TriggerCount `json:"triggers"`
}

// Summarize derives the journey summary of a quit habit. The second return
// is false for build habits.
func Summarize(h types.Habit, now time.Time) (Summary, bool) {
	if !h.IsQuit() {
		return Summary{}, false
	}
	q := *h.Quit
	hm := BuildHeatmap(q, now)

	return Summary{
		HabitID:           h.ID,
		Name:              h.Name,
		QuitDate:          q.QuitDate,
		JourneyStart:      JourneyStart(q),
		Current:           ElapsedSince(q.QuitDate, now),
		CurrentSeconds:    CurrentStreakSeconds(q, now),
		BestStreakSeconds: BestStreakEver(q, now),
		MoneySaved:        MoneySaved(q, now),
		Relapses:          len(q.History),
		SuccessDays:       hm.SuccessDays,
		RelapseDays:       hm.RelapseDays,
		Triggers:          RankTriggers(q),
	}, true
}
