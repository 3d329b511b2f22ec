package types

import (
	"encoding/json"
	"time"
)

// HabitKind discriminates the two habit variants
type HabitKind string

const (
	HabitKindBuild HabitKind = "build"
	HabitKindQuit  HabitKind = "quit"
)

// TrackingType describes how a build habit is checked off
type TrackingType string

const (
	TrackingBoolean TrackingType = "boolean"
	TrackingCount   TrackingType = "count"
)

// IsValid reports whether t is a known tracking type
func (t TrackingType) IsValid() bool {
	switch t {
	case TrackingBoolean, TrackingCount:
		return true
	default:
		return false
	}
}

// BuildSpec is the payload of a habit the user is trying to perform regularly
type BuildSpec struct {
	TrackingType TrackingType `json:"trackingType" validate:"oneof=boolean count"`
	DailyTarget  float64      `json:"dailyTarget" validate:"gt=0"`
	StreakGoal   int          `json:"streakGoal" validate:"gte=0"`
}

// QuitSpec is the payload of a habit the user is trying to abstain from.
// QuitDate marks the start of the current clean streak, OriginalQuitDate the
// first attempt ever (nil until the first relapse is logged).
type QuitSpec struct {
	QuitDate         time.Time       `json:"quitDate" validate:"required"`
	OriginalQuitDate *time.Time      `json:"originalQuitDate,omitempty"`
	QuitCostPerDay   *float64        `json:"quitCostPerDay,omitempty" validate:"omitempty,gte=0"`
	History          []RelapseRecord `json:"quitHistory" validate:"dive"`
}

// RelapseRecord is an immutable historical fact about a broken streak
type RelapseRecord struct {
	Date            time.Time `json:"date"`
	DurationSeconds int64     `json:"durationSeconds" validate:"gte=0"`
	Trigger         string    `json:"trigger"`
}

// Habit is either a build habit or a quit habit. Exactly one of Build and
// Quit is non-nil and it always matches Kind.
type Habit struct {
	ID                string     `json:"id" validate:"required"`
	Name              string     `json:"name" validate:"required,max=120"`
	Category          string     `json:"category"`
	Color             string     `json:"color"`
	GoalFrequency     int        `json:"goalFrequency" validate:"gte=0,lte=7"`
	TargetConsistency int        `json:"targetConsistency" validate:"gte=0,lte=100"`
	Kind              HabitKind  `json:"type" validate:"oneof=build quit"`
	Build             *BuildSpec `json:"-"`
	Quit              *QuitSpec  `json:"-"`
}

// NewBuildHabit creates a build habit with boolean tracking
func NewBuildHabit(id, name string, targetConsistency int) Habit {
	return Habit{
		ID:                id,
		Name:              name,
		GoalFrequency:     7,
		TargetConsistency: targetConsistency,
		Kind:              HabitKindBuild,
		Build: &BuildSpec{
			TrackingType: TrackingBoolean,
			DailyTarget:  1,
		},
	}
}

// NewQuitHabit creates a quit habit whose clean streak starts at quitDate
func NewQuitHabit(id, name string, quitDate time.Time) Habit {
	return Habit{
		ID:                id,
		Name:              name,
		GoalFrequency:     7,
		TargetConsistency: 100,
		Kind:              HabitKindQuit,
		Quit: &QuitSpec{
			QuitDate: quitDate,
			History:  []RelapseRecord{},
		},
	}
}

// IsQuit reports whether the habit is a quit habit
func (h Habit) IsQuit() bool {
	return h.Kind == HabitKindQuit && h.Quit != nil
}

// IsBuild reports whether the habit is a build habit
func (h Habit) IsBuild() bool {
	return h.Kind == HabitKindBuild && h.Build != nil
}

// AsBuild switches the habit to the build variant, dropping any quit payload
func (h Habit) AsBuild(spec BuildSpec) Habit {
	h.Kind = HabitKindBuild
	h.Build = &spec
	h.Quit = nil
	return h
}

// AsQuit switches the habit to the quit variant, dropping any build payload
func (h Habit) AsQuit(spec QuitSpec) Habit {
	h.Kind = HabitKindQuit
	if spec.History == nil {
		spec.History = []RelapseRecord{}
	}
	h.Quit = &spec
	h.Build = nil
	return h
}

// Clone returns a deep copy so snapshots never share variant payloads
func (h Habit) Clone() Habit {
	if h.Build != nil {
		b := *h.Build
		h.Build = &b
	}
	if h.Quit != nil {
		q := *h.Quit
		if q.OriginalQuitDate != nil {
			t := *q.OriginalQuitDate
			q.OriginalQuitDate = &t
		}
		if q.QuitCostPerDay != nil {
			c := *q.QuitCostPerDay
			q.QuitCostPerDay = &c
		}
		q.History = append([]RelapseRecord{}, q.History...)
		h.Quit = &q
	}
	return h
}

// habitWire is the flat persisted shape shared by both variants
type habitWire struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Color             string          `json:"color"`
	GoalFrequency     int             `json:"goalFrequency"`
	TargetConsistency int             `json:"targetConsistency"`
	Type              HabitKind       `json:"type,omitempty"`
	TrackingType      TrackingType    `json:"trackingType,omitempty"`
	DailyTarget       *float64        `json:"dailyTarget,omitempty"`
	StreakGoal        *int            `json:"streakGoal,omitempty"`
	QuitDate          *time.Time      `json:"quitDate,omitempty"`
	OriginalQuitDate  *time.Time      `json:"originalQuitDate,omitempty"`
	QuitCostPerDay    *float64        `json:"quitCostPerDay,omitempty"`
	QuitHistory       []RelapseRecord `json:"quitHistory,omitempty"`
}

// MarshalJSON writes the habit as a single flat record
func (h Habit) MarshalJSON() ([]byte, error) {
	w := habitWire{
		ID:                h.ID,
		Name:              h.Name,
		Category:          h.Category,
		Color:             h.Color,
		GoalFrequency:     h.GoalFrequency,
		TargetConsistency: h.TargetConsistency,
		Type:              h.Kind,
	}
	switch {
	case h.IsQuit():
		w.Type = HabitKindQuit
		if !h.Quit.QuitDate.IsZero() {
			qd := h.Quit.QuitDate
			w.QuitDate = &qd
		}
		w.OriginalQuitDate = h.Quit.OriginalQuitDate
		w.QuitCostPerDay = h.Quit.QuitCostPerDay
		w.QuitHistory = h.Quit.History
	case h.Build != nil:
		w.Type = HabitKindBuild
		dt := h.Build.DailyTarget
		sg := h.Build.StreakGoal
		w.TrackingType = h.Build.TrackingType
		w.DailyTarget = &dt
		w.StreakGoal = &sg
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads a flat record. Records written before quit habits
// existed carry no type and decode as build habits with default tracking.
func (h *Habit) UnmarshalJSON(data []byte) error {
	var w habitWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Habit{
		ID:                w.ID,
		Name:              w.Name,
		Category:          w.Category,
		Color:             w.Color,
		GoalFrequency:     w.GoalFrequency,
		TargetConsistency: w.TargetConsistency,
	}

	if w.Type == HabitKindQuit {
		q := QuitSpec{
			OriginalQuitDate: w.OriginalQuitDate,
			QuitCostPerDay:   w.QuitCostPerDay,
			History:          w.QuitHistory,
		}
		if w.QuitDate != nil {
			q.QuitDate = *w.QuitDate
		}
		*h = out.AsQuit(q)
		return nil
	}

	b := BuildSpec{TrackingType: w.TrackingType, DailyTarget: 1}
	if !b.TrackingType.IsValid() {
		b.TrackingType = TrackingBoolean
	}
	if w.DailyTarget != nil && *w.DailyTarget > 0 {
		b.DailyTarget = *w.DailyTarget
	}
	if w.StreakGoal != nil && *w.StreakGoal > 0 {
		b.StreakGoal = *w.StreakGoal
	}
	*h = out.AsBuild(b)
	return nil
}
