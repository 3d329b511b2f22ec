package quit

import (
	"sort"
	"time"

	"kaizen/internal/dates"
	"kaizen/internal/types"
)

// Cell classifies one calendar day of a quit journey
type Cell string

const (
	CellSuccess Cell = "SUCCESS"
	CellRelapse Cell = "RELAPSE"
)

// HeatmapCell is one classified day
type HeatmapCell struct {
	Date  string `json:"date"`
	State Cell   `json:"state"`
}

// Heatmap covers every day of [journeyStart, today] with tallies
type Heatmap struct {
	Cells       []HeatmapCell `json:"cells"`
	SuccessDays int           `json:"successDays"`
	RelapseDays int           `json:"relapseDays"`
}

// relapseDays returns the civil date keys, in loc, that carry a relapse
func relapseDays(q types.QuitSpec, loc *time.Location) map[string]struct{} {
	out := make(map[string]struct{}, len(q.History))
	for _, rec := range q.History {
		out[dates.Key(rec.Date.In(loc))] = struct{}{}
	}
	return out
}

// dayClassifier classifies date keys against one journey
type dayClassifier struct {
	startKey string
	todayKey string
	relapses map[string]struct{}
	empty    bool
}

func newDayClassifier(q types.QuitSpec, today time.Time) dayClassifier {
	start := JourneyStart(q)
	if start.IsZero() {
		return dayClassifier{empty: true}
	}
	loc := today.Location()
	return dayClassifier{
		startKey: dates.Key(start.In(loc)),
		todayKey: dates.Key(today),
		relapses: relapseDays(q, loc),
	}
}

func (c dayClassifier) classify(date string) (Cell, bool) {
	if c.empty || date < c.startKey || date > c.todayKey {
		return "", false
	}
	if _, ok := c.relapses[date]; ok {
		return CellRelapse, true
	}
	return CellSuccess, true
}

// Classify returns the state of the given date key. The second return is
// false for days before the journey start or after today.
func Classify(q types.QuitSpec, date string, today time.Time) (Cell, bool) {
	return newDayClassifier(q, today).classify(date)
}

// BuildHeatmap classifies every day from the journey start through today.
// Days are civil dates in today's location.
func BuildHeatmap(q types.QuitSpec, today time.Time) Heatmap {
	hm := Heatmap{Cells: []HeatmapCell{}}

	c := newDayClassifier(q, today)
	if c.empty {
		return hm
	}

	for _, key := range dates.Range(JourneyStart(q).In(today.Location()), today) {
		state, ok := c.classify(key)
		if !ok {
			continue
		}
		switch state {
		case CellRelapse:
			hm.RelapseDays++
		default:
			hm.SuccessDays++
		}
		hm.Cells = append(hm.Cells, HeatmapCell{Date: key, State: state})
	}
	return hm
}

// TriggerCount is the number of relapses attributed to one trigger
type TriggerCount struct {
	Trigger string `json:"trigger"`
	Count   int    `json:"count"`
}

// UnspecifiedTrigger labels relapses logged without a trigger
const UnspecifiedTrigger = "unspecified"

// RankTriggers orders triggers by frequency, then alphabetically
func RankTriggers(q types.QuitSpec) []TriggerCount {
	counts := make(map[string]int)
	for _, rec := range q.History {
		label := rec.Trigger
		if label == "" {
			label = UnspecifiedTrigger
		}
		counts[label]++
	}

	out := make([]TriggerCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, TriggerCount{Trigger: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Trigger < out[j].Trigger
	})
	return out
}
