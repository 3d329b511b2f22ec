package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"kaizen/internal/dates"
	"kaizen/internal/gamification"
	trackerrors "kaizen/internal/infrastructure/errors"
	"kaizen/internal/quit"
	"kaizen/internal/reconcile"
	"kaizen/internal/types"
)

var inputValidate = validator.New()

// HabitInput describes a habit to create
type HabitInput struct {
	Name              string          `validate:"required,max=120"`
	Kind              types.HabitKind `validate:"omitempty,oneof=build quit"`
	Category          string          `validate:"max=60"`
	Color             string          `validate:"omitempty,hexcolor"`
	GoalFrequency     *int            `validate:"omitempty,gte=0,lte=7"`
	TargetConsistency *int            `validate:"omitempty,gte=0,lte=100"`

	TrackingType types.TrackingType `validate:"omitempty,oneof=boolean count"`
	DailyTarget  float64            `validate:"gte=0"`
	StreakGoal   int                `validate:"gte=0"`

	QuitDate       *time.Time
	QuitCostPerDay *float64 `validate:"omitempty,gte=0"`
}

// HabitPatch changes selected fields of a habit. Nil fields are kept.
// Changing Kind switches the variant and drops the other payload.
type HabitPatch struct {
	Name              *string          `validate:"omitempty,min=1,max=120"`
	Kind              *types.HabitKind `validate:"omitempty,oneof=build quit"`
	Category          *string          `validate:"omitempty,max=60"`
	Color             *string          `validate:"omitempty,hexcolor"`
	GoalFrequency     *int             `validate:"omitempty,gte=0,lte=7"`
	TargetConsistency *int             `validate:"omitempty,gte=0,lte=100"`

	TrackingType *types.TrackingType `validate:"omitempty,oneof=boolean count"`
	DailyTarget  *float64            `validate:"omitempty,gt=0"`
	StreakGoal   *int                `validate:"omitempty,gte=0"`

	QuitCostPerDay *float64 `validate:"omitempty,gte=0"`
}

// ToggleResult reports one completion toggle
type ToggleResult struct {
	Result
	HabitID   string
	Date      string
	Completed bool
	// Hero is set only when gamification mode is active
	Hero *gamification.Outcome
}

// HabitResult reports a habit create, edit or relapse
type HabitResult struct {
	Result
	Habit types.Habit
}

func (ht *HabitTracker) findLocked(op, id string) (int, error) {
	idx := ht.state.FindHabit(id)
	if idx < 0 {
		return -1, trackerrors.HandleNotFound(op, "habit", id)
	}
	return idx, nil
}

func kindMismatch(op string, h types.Habit, want types.HabitKind) error {
	return trackerrors.NewRepositoryErrorWithContext(op,
		fmt.Errorf("habit %q is a %s habit, not %s", h.ID, h.Kind, want),
		trackerrors.ErrCodeValidation,
		map[string]string{"habit_id": h.ID, "kind": string(h.Kind)})
}

// ToggleHabit flips the completion of a build habit on the civil date of
// day. In gamified mode the toggle also moves hero XP.
func (ht *HabitTracker) ToggleHabit(ctx context.Context, habitID string, day time.Time) (ToggleResult, error) {
	ht.mutex.Lock()
	idx, err := ht.findLocked("ToggleHabit", habitID)
	if err != nil {
		ht.mutex.Unlock()
		return ToggleResult{}, err
	}
	h := ht.state.Habits[idx]
	if !h.IsBuild() {
		ht.mutex.Unlock()
		return ToggleResult{}, kindMismatch("ToggleHabit", h, types.HabitKindBuild)
	}

	date := dates.Key(day)
	ht.book = ht.book.Toggle(habitID, date)
	completed := ht.book.IsComplete(habitID, date)

	res := ToggleResult{HabitID: habitID, Date: date, Completed: completed}
	collections := []string{reconcile.KeyTracking}
	if ht.state.Settings.Gamified() {
		outcome := ht.config.Gamification.OnToggle(ht.state.Settings.HeroStats, completed)
		ht.state.Settings.HeroStats = outcome.Stats
		res.Hero = &outcome
		collections = append(collections, reconcile.KeySettings)
	}
	user := ht.config.User
	snapshot := ht.snapshotLocked()
	ht.mutex.Unlock()

	ht.logger.Debug("Toggled habit", "habit_id", habitID, "date", date, "completed", completed)
	res.State = snapshot
	res.Persisted = ht.writeBack(ctx, user, snapshot, collections...)
	return res, nil
}

// LogRelapse records a relapse of a quit habit at the given moment. A
// moment after now is treated as now; one before the current quit date
// produces a zero-duration record.
func (ht *HabitTracker) LogRelapse(ctx context.Context, habitID string, at time.Time, trigger string) (HabitResult, error) {
	ht.mutex.Lock()
	idx, err := ht.findLocked("LogRelapse", habitID)
	if err != nil {
		ht.mutex.Unlock()
		return HabitResult{}, err
	}
	h := ht.state.Habits[idx]
	if !h.IsQuit() {
		ht.mutex.Unlock()
		return HabitResult{}, kindMismatch("LogRelapse", h, types.HabitKindQuit)
	}

	if now := ht.now(); at.IsZero() || at.After(now) {
		at = now
	}
	updated := quit.LogRelapse(h, at, trigger)
	ht.state.Habits[idx] = updated
	user := ht.config.User
	snapshot := ht.snapshotLocked()
	ht.mutex.Unlock()

	ht.logger.Info("Relapse logged",
		"habit_id", habitID,
		"duration_seconds", updated.Quit.History[0].DurationSeconds,
		"trigger", updated.Quit.History[0].Trigger)

	return HabitResult{
		Result: Result{State: snapshot, Persisted: ht.writeBack(ctx, user, snapshot, reconcile.KeyHabits)},
		Habit:  updated.Clone(),
	}, nil
}

// AddHabit validates the input and appends a new habit with a fresh id
func (ht *HabitTracker) AddHabit(ctx context.Context, in HabitInput) (HabitResult, error) {
	if err := inputValidate.Struct(in); err != nil {
		return HabitResult{}, trackerrors.HandleValidationError("AddHabit", "habit", err)
	}

	ht.mutex.Lock()
	now := ht.now()
	h, err := buildHabit(uuid.NewString(), in, now)
	if err != nil {
		ht.mutex.Unlock()
		return HabitResult{}, err
	}
	ht.state.Habits = append(ht.state.Habits, h)
	user := ht.config.User
	snapshot := ht.snapshotLocked()
	ht.mutex.Unlock()

	ht.logger.Info("Habit added", "habit_id", h.ID, "kind", string(h.Kind))
	return HabitResult{
		Result: Result{State: snapshot, Persisted: ht.writeBack(ctx, user, snapshot, reconcile.KeyHabits)},
		Habit:  h.Clone(),
	}, nil
}

func buildHabit(id string, in HabitInput, now time.Time) (types.Habit, error) {
	name := strings.TrimSpace(in.Name)
	var h types.Habit
	switch in.Kind {
	case types.HabitKindQuit:
		quitDate := now
		if in.QuitDate != nil {
			if in.QuitDate.After(now) {
				return types.Habit{}, trackerrors.HandleValidationError("AddHabit", "habit",
					errors.New("quit date cannot be in the future"))
			}
			quitDate = *in.QuitDate
		}
		h = types.NewQuitHabit(id, name, quitDate)
		if in.QuitCostPerDay != nil {
			cost := *in.QuitCostPerDay
			h.Quit.QuitCostPerDay = &cost
		}
	default:
		h = types.NewBuildHabit(id, name, 80)
		if in.TrackingType != "" {
			h.Build.TrackingType = in.TrackingType
		}
		if in.DailyTarget > 0 {
			h.Build.DailyTarget = in.DailyTarget
		}
		h.Build.StreakGoal = in.StreakGoal
	}

	h.Category = in.Category
	h.Color = in.Color
	if in.GoalFrequency != nil {
		h.GoalFrequency = *in.GoalFrequency
	}
	if in.TargetConsistency != nil {
		h.TargetConsistency = *in.TargetConsistency
	}

	if err := h.Validate(); err != nil {
		return types.Habit{}, trackerrors.HandleValidationError("AddHabit", "habit", err)
	}
	return h, nil
}

// EditHabit applies a patch. Switching a habit to quit starts its clean
// streak now; switching to build starts with a boolean payload.
func (ht *HabitTracker) EditHabit(ctx context.Context, habitID string, patch HabitPatch) (HabitResult, error) {
	if err := inputValidate.Struct(patch); err != nil {
		return HabitResult{}, trackerrors.HandleValidationError("EditHabit", "habit", err)
	}

	ht.mutex.Lock()
	idx, err := ht.findLocked("EditHabit", habitID)
	if err != nil {
		ht.mutex.Unlock()
		return HabitResult{}, err
	}

	h, err := applyPatch(ht.state.Habits[idx].Clone(), patch, ht.now())
	if err != nil {
		ht.mutex.Unlock()
		return HabitResult{}, err
	}
	ht.state.Habits[idx] = h
	user := ht.config.User
	snapshot := ht.snapshotLocked()
	ht.mutex.Unlock()

	ht.logger.Info("Habit edited", "habit_id", habitID, "kind", string(h.Kind))
	return HabitResult{
		Result: Result{State: snapshot, Persisted: ht.writeBack(ctx, user, snapshot, reconcile.KeyHabits)},
		Habit:  h.Clone(),
	}, nil
}

func applyPatch(h types.Habit, p HabitPatch, now time.Time) (types.Habit, error) {
	if p.Name != nil {
		h.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		h.Category = *p.Category
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.GoalFrequency != nil {
		h.GoalFrequency = *p.GoalFrequency
	}
	if p.TargetConsistency != nil {
		h.TargetConsistency = *p.TargetConsistency
	}

	if p.Kind != nil && *p.Kind != h.Kind {
		switch *p.Kind {
		case types.HabitKindQuit:
			h = h.AsQuit(types.QuitSpec{QuitDate: now})
		case types.HabitKindBuild:
			h = h.AsBuild(types.BuildSpec{TrackingType: types.TrackingBoolean, DailyTarget: 1})
		}
	}

	if h.IsBuild() {
		if p.TrackingType != nil {
			h.Build.TrackingType = *p.TrackingType
		}
		if p.DailyTarget != nil {
			h.Build.DailyTarget = *p.DailyTarget
		}
		if p.StreakGoal != nil {
			h.Build.StreakGoal = *p.StreakGoal
		}
	}
	if h.IsQuit() && p.QuitCostPerDay != nil {
		cost := *p.QuitCostPerDay
		h.Quit.QuitCostPerDay = &cost
	}

	if err := h.Validate(); err != nil {
		return types.Habit{}, trackerrors.HandleValidationError("EditHabit", "habit", err)
	}
	return h, nil
}

// DeleteHabit removes a habit. Its tracking entries stay in the ledger as
// dangling ids.
func (ht *HabitTracker) DeleteHabit(ctx context.Context, habitID string) (Result, error) {
	ht.mutex.Lock()
	idx, err := ht.findLocked("DeleteHabit", habitID)
	if err != nil {
		ht.mutex.Unlock()
		return Result{}, err
	}
	habits := make([]types.Habit, 0, len(ht.state.Habits)-1)
	habits = append(habits, ht.state.Habits[:idx]...)
	habits = append(habits, ht.state.Habits[idx+1:]...)
	ht.state.Habits = habits
	user := ht.config.User
	snapshot := ht.snapshotLocked()
	ht.mutex.Unlock()

	ht.logger.Info("Habit deleted", "habit_id", habitID)
	return Result{State: snapshot, Persisted: ht.writeBack(ctx, user, snapshot, reconcile.KeyHabits)}, nil
}

// SetMode switches between standard and gamified mode. Hero stats are
// kept across switches.
func (ht *HabitTracker) SetMode(ctx context.Context, mode types.AppMode) (Result, error) {
	if mode != types.ModeStandard && mode != types.ModeGamified {
		return Result{}, trackerrors.HandleValidationError("SetMode", "settings",
			fmt.Errorf("unknown mode %q", mode))
	}

	ht.mutex.Lock()
	ht.state.Settings.Mode = mode
	user := ht.config.User
	snapshot := ht.snapshotLocked()
	ht.mutex.Unlock()

	return Result{State: snapshot, Persisted: ht.writeBack(ctx, user, snapshot, reconcile.KeySettings)}, nil
}

// ResetHero restores the default hero stats
func (ht *HabitTracker) ResetHero(ctx context.Context) (Result, error) {
	ht.mutex.Lock()
	ht.state.Settings.HeroStats = types.DefaultHeroStats()
	user := ht.config.User
	snapshot := ht.snapshotLocked()
	ht.mutex.Unlock()

	return Result{State: snapshot, Persisted: ht.writeBack(ctx, user, snapshot, reconcile.KeySettings)}, nil
}
