package services

import (
	"context"
	"sync"
	"time"

	"kaizen/internal/infrastructure/logging"
	"kaizen/internal/ledger"
	"kaizen/internal/reconcile"
	"kaizen/internal/store"
	"kaizen/internal/types"
)

// HabitTracker holds the current state snapshot of one user and applies
// transitions to it. Every accepted mutation is followed by a best-effort
// write-back; a failed write is reported but never rolls back the
// in-memory state.
type HabitTracker struct {
	mutex   sync.RWMutex
	writeMu sync.Mutex

	state      types.State
	book       ledger.Ledger
	store      store.Store
	reconciler *reconcile.Reconciler
	config     TrackerConfig
	logger     logging.Logger
	now        func() time.Time
}

// Result reports the snapshot after a mutation and whether it reached the
// store
type Result struct {
	State     types.State
	Persisted bool
}

// NewHabitTracker creates a tracker holding the default state. Call
// LoadUser to hydrate it from the store.
func NewHabitTracker(s store.Store, config TrackerConfig, logger logging.Logger) *HabitTracker {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if config.User == "" {
		config.User = store.DefaultUser
	}
	if config.WindowDays <= 0 {
		config.WindowDays = DefaultTrackerConfig().WindowDays
	}
	if config.Gamification.XPPerCompletion <= 0 || config.Gamification.LevelMultiplier <= 0 {
		config.Gamification = DefaultTrackerConfig().Gamification
	}

	state := types.DefaultState()
	return &HabitTracker{
		state:      state,
		book:       ledger.New(state.Tracking),
		store:      s,
		reconciler: reconcile.New(logger),
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock replaces the time source
func (ht *HabitTracker) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	ht.mutex.Lock()
	defer ht.mutex.Unlock()
	ht.now = now
}

// LoadUser hydrates the configured user's state from the store
func (ht *HabitTracker) LoadUser(ctx context.Context) error {
	return ht.SwitchUser(ctx, ht.User())
}

// SwitchUser re-hydrates state from the store for another identity. Corrupt
// documents fall back to defaults; only a store failure is returned, in
// which case the current state and user are kept.
func (ht *HabitTracker) SwitchUser(ctx context.Context, user string) error {
	if user == "" {
		user = store.DefaultUser
	}
	start := time.Now()

	var docs reconcile.Documents
	if ht.store != nil {
		var err error
		docs, err = store.LoadDocuments(ctx, ht.store, user)
		if err != nil {
			logging.LogError(ht.logger, err, "SwitchUser", map[string]interface{}{"user": user})
			return err
		}
	}

	state := ht.reconciler.Load(docs)

	ht.mutex.Lock()
	ht.config.User = user
	ht.state = state
	ht.book = ledger.New(state.Tracking)
	ht.mutex.Unlock()

	logging.LogOperation(ht.logger, "SwitchUser", time.Since(start), map[string]interface{}{
		"user":      user,
		"habits":    len(state.Habits),
		"documents": len(docs),
	})
	return nil
}

// Snapshot returns a deep copy of the current state
func (ht *HabitTracker) Snapshot() types.State {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()
	return ht.snapshotLocked()
}

func (ht *HabitTracker) snapshotLocked() types.State {
	out := ht.state.Clone()
	out.Tracking = ht.book.Data()
	return out
}

// Habits returns a copy of the habit list
func (ht *HabitTracker) Habits() []types.Habit {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()
	out := make([]types.Habit, len(ht.state.Habits))
	for i, h := range ht.state.Habits {
		out[i] = h.Clone()
	}
	return out
}

// Hero returns the current hero stats
func (ht *HabitTracker) Hero() types.HeroStats {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()
	return ht.state.Settings.HeroStats
}

// Export serializes every collection of the current state
func (ht *HabitTracker) Export() (reconcile.Documents, error) {
	return reconcile.Serialize(ht.Snapshot())
}

// Import replaces the current user's state with the reconciled documents
// and writes every collection back. Corrupt collections fall back to
// defaults the same way a load does.
func (ht *HabitTracker) Import(ctx context.Context, docs reconcile.Documents) Result {
	state := ht.reconciler.Load(docs)

	ht.mutex.Lock()
	ht.state = state
	ht.book = ledger.New(state.Tracking)
	user := ht.config.User
	snapshot := ht.snapshotLocked()
	ht.mutex.Unlock()

	ht.logger.Info("State imported", "user", user, "habits", len(snapshot.Habits), "days", len(snapshot.Tracking))
	return Result{State: snapshot, Persisted: ht.writeBack(ctx, user, snapshot, reconcile.Collections...)}
}

// writeBack persists the given collections. It must be called after the
// mutation is applied and outside the lock. Writes run one at a time and
// each takes the newest snapshot of user, so a slow write never lands
// after a later one. state is written only when the tracker has already
// switched to another user.
func (ht *HabitTracker) writeBack(ctx context.Context, user string, state types.State, collections ...string) bool {
	if ht.store == nil {
		return false
	}

	ht.writeMu.Lock()
	defer ht.writeMu.Unlock()

	ht.mutex.RLock()
	enabled := ht.config.PersistenceEnabled
	if enabled && ht.config.User == user {
		state = ht.snapshotLocked()
	}
	ht.mutex.RUnlock()
	if !enabled {
		return false
	}

	start := time.Now()
	docs := make(reconcile.Documents, len(collections))
	for _, collection := range collections {
		raw, err := reconcile.SerializeCollection(state, collection)
		if err != nil {
			logging.LogError(ht.logger, err, "writeBack", map[string]interface{}{"collection": collection})
			return false
		}
		docs[collection] = raw
	}

	if err := store.SaveDocuments(ctx, ht.store, user, docs); err != nil {
		logging.LogError(ht.logger, err, "writeBack", map[string]interface{}{
			"user":        user,
			"collections": collections,
		})
		return false
	}

	logging.LogOperation(ht.logger, "writeBack", time.Since(start), map[string]interface{}{
		"user":        user,
		"collections": collections,
	})
	return true
}
