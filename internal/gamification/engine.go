// Package gamification turns build-habit toggles into hero experience and
// levels. The hero is a running accumulator over toggle events and is never
// recomputed from the ledger.
package gamification

import (
	"math"

	"kaizen/internal/types"
)

const (
	// DefaultXPPerCompletion is awarded for a completion and taken back on undo
	DefaultXPPerCompletion = 15
	// DefaultLevelMultiplier grows the next level threshold after a level-up
	DefaultLevelMultiplier = 1.2
)

// Engine holds the leveling parameters
type Engine struct {
	XPPerCompletion int
	LevelMultiplier float64
}

// Outcome describes one applied event
type Outcome struct {
	Stats        types.HeroStats `json:"stats"`
	Delta        int             `json:"delta"`
	LevelsGained int             `json:"levelsGained"`
}

// New creates an engine. Non-positive parameters fall back to the defaults.
func New(xpPerCompletion int, levelMultiplier float64) Engine {
	if xpPerCompletion <= 0 {
		xpPerCompletion = DefaultXPPerCompletion
	}
	if levelMultiplier <= 0 {
		levelMultiplier = DefaultLevelMultiplier
	}
	return Engine{XPPerCompletion: xpPerCompletion, LevelMultiplier: levelMultiplier}
}

// Default returns an engine with +15 XP per completion and a 1.2 curve
func Default() Engine {
	return New(DefaultXPPerCompletion, DefaultLevelMultiplier)
}

// ToggleDelta is +XPPerCompletion when the day became completed and the
// negative of it on undo
func (e Engine) ToggleDelta(completed bool) int {
	if completed {
		return e.XPPerCompletion
	}
	return -e.XPPerCompletion
}

// OnToggle applies the delta of one build-habit toggle
func (e Engine) OnToggle(stats types.HeroStats, completed bool) Outcome {
	return e.Apply(stats, e.ToggleDelta(completed))
}

// Apply adds delta to XP, clamps XP at zero and levels up for as long as
// XP reaches the threshold. Undo never levels down.
func (e Engine) Apply(stats types.HeroStats, delta int) Outcome {
	out := Outcome{Stats: stats, Delta: delta}
	s := &out.Stats

	if s.NextLevelXP <= 0 {
		s.NextLevelXP = types.DefaultHeroStats().NextLevelXP
	}
	if s.Level <= 0 {
		s.Level = 1
	}

	s.XP += delta
	if s.XP < 0 {
		s.XP = 0
	}

	for s.XP >= s.NextLevelXP {
		s.XP -= s.NextLevelXP
		s.Level++
		s.NextLevelXP = e.nextThreshold(s.NextLevelXP)
		out.LevelsGained++
	}
	return out
}

func (e Engine) nextThreshold(current int) int {
	next := int(math.Round(float64(current) * e.LevelMultiplier))
	if next < 1 {
		next = 1
	}
	return next
}

// Progress is the fraction of the current level already earned, in [0, 1]
func Progress(stats types.HeroStats) float64 {
	if stats.NextLevelXP <= 0 {
		return 0
	}
	p := float64(stats.XP) / float64(stats.NextLevelXP)
	return math.Min(math.Max(p, 0), 1)
}
