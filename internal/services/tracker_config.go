package services

import (
	"kaizen/internal/gamification"
	"kaizen/internal/stats"
	"kaizen/internal/store"
)

// TrackerConfig holds the tunables of a HabitTracker
type TrackerConfig struct {
	User               string
	WindowDays         int
	Gamification       gamification.Engine
	PersistenceEnabled bool
}

// DefaultTrackerConfig returns the standard 30-day window and leveling curve
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		User:               store.DefaultUser,
		WindowDays:         stats.DefaultWindowDays,
		Gamification:       gamification.Default(),
		PersistenceEnabled: true,
	}
}

// SetPersistenceEnabled enables or disables write-back after mutations
func (ht *HabitTracker) SetPersistenceEnabled(enabled bool) {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()
	ht.config.PersistenceEnabled = enabled
}

// IsPersistenceEnabled reports whether mutations are written back
func (ht *HabitTracker) IsPersistenceEnabled() bool {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()
	return ht.config.PersistenceEnabled
}

// SetWindowDays changes the consistency window. Non-positive values restore
// the default.
func (ht *HabitTracker) SetWindowDays(days int) {
	if days <= 0 {
		days = stats.DefaultWindowDays
	}
	ht.mutex.Lock()
	defer ht.mutex.Unlock()
	ht.config.WindowDays = days
}

// User returns the active user identity
func (ht *HabitTracker) User() string {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()
	return ht.config.User
}
