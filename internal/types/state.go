package types

import (
	"encoding/json"
	"sort"
)

// HeroStats is the running gamification accumulator. In steady state
// XP < NextLevelXP.
type HeroStats struct {
	HP          int `json:"hp"`
	MaxHP       int `json:"maxHp"`
	XP          int `json:"xp"`
	Level       int `json:"level"`
	NextLevelXP int `json:"nextLevelXp"`
}

// DefaultHeroStats returns the stats of a brand new hero
func DefaultHeroStats() HeroStats {
	return HeroStats{
		HP:          100,
		MaxHP:       100,
		XP:          0,
		Level:       1,
		NextLevelXP: 500,
	}
}

// AppMode selects between the plain tracker and the gamified experience
type AppMode string

const (
	ModeStandard AppMode = "standard"
	ModeGamified AppMode = "gamified"
)

// Settings travels as one persisted document. Mode and Chronotype are
// presentation concerns carried for the host.
type Settings struct {
	HeroStats  HeroStats `json:"heroStats"`
	Mode       AppMode   `json:"mode"`
	Chronotype string    `json:"chronotype"`
}

// DefaultSettings returns the settings used when nothing usable is stored
func DefaultSettings() Settings {
	return Settings{
		HeroStats:  DefaultHeroStats(),
		Mode:       ModeStandard,
		Chronotype: "bear",
	}
}

// Gamified reports whether toggles should feed the hero accumulator
func (s Settings) Gamified() bool {
	return s.Mode == ModeGamified
}

// TrackingData maps a civil date key (YYYY-MM-DD) to the build habit ids
// completed that day. An absent date means nothing was completed.
type TrackingData map[string][]string

// Clone returns an independent copy
func (t TrackingData) Clone() TrackingData {
	out := make(TrackingData, len(t))
	for k, v := range t {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// SortedDates returns the date keys in ascending order
func (t TrackingData) SortedDates() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// State is the full typed bundle hydrated from the persisted documents.
// Journal and Finance belong to collaborators and are carried opaquely.
type State struct {
	Habits   []Habit         `json:"habits"`
	Tracking TrackingData    `json:"tracking"`
	Journal  json.RawMessage `json:"journal"`
	Finance  json.RawMessage `json:"finance"`
	Settings Settings        `json:"settings"`
}

// DefaultHabits is the compiled-in starter list used when the stored list
// is missing or unusable.
func DefaultHabits() []Habit {
	meditate := NewBuildHabit("default-meditation", "Meditation", 80)
	meditate.Category = "Mindfulness"
	meditate.Color = "#8b5cf6"

	read := NewBuildHabit("default-reading", "Read 20 pages", 70)
	read.Category = "Learning"
	read.Color = "#3b82f6"
	read.GoalFrequency = 5

	exercise := NewBuildHabit("default-exercise", "Exercise", 60)
	exercise.Category = "Health"
	exercise.Color = "#22c55e"
	exercise.GoalFrequency = 4

	return []Habit{meditate, read, exercise}
}

// DefaultState returns the state of a first launch
func DefaultState() State {
	return State{
		Habits:   DefaultHabits(),
		Tracking: TrackingData{},
		Journal:  json.RawMessage("[]"),
		Finance:  json.RawMessage("[]"),
		Settings: DefaultSettings(),
	}
}

// FindHabit returns the index of the habit with the given id, or -1
func (s State) FindHabit(id string) int {
	for i := range s.Habits {
		if s.Habits[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the bundle
func (s State) Clone() State {
	out := State{
		Habits:   make([]Habit, len(s.Habits)),
		Tracking: s.Tracking.Clone(),
		Journal:  append(json.RawMessage(nil), s.Journal...),
		Finance:  append(json.RawMessage(nil), s.Finance...),
		Settings: s.Settings,
	}
	for i, h := range s.Habits {
		out.Habits[i] = h.Clone()
	}
	return out
}
