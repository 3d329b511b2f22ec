package app

import (
	"context"
	"testing"
	"time"

	"kaizen/internal/config"
	"kaizen/internal/infrastructure/logging"
	"kaizen/internal/reconcile"
	"kaizen/internal/services"
	"kaizen/internal/store"
	"kaizen/internal/testutils"
)

func TestNewApp_MemoryBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := config.ForEnvironment("test")

	a, err := NewApp(ctx, cfg)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	a.Startup(ctx)

	res, err := a.Tracker().ToggleHabit(ctx, "default-meditation", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Persisted {
		t.Error("toggle should reach the memory store")
	}
	if _, ok, _ := a.Store().Get(ctx, store.Key(store.DefaultUser, reconcile.KeyTracking)); !ok {
		t.Error("tracking document should be stored")
	}

	if err := a.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewApp_SQLiteBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := config.ForEnvironment("test")
	cfg.Store.Backend = store.BackendSQLite
	cfg.User = "ann"

	a, err := NewApp(ctx, cfg)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer a.Shutdown(ctx)

	a.Startup(ctx)
	if !a.Tracker().IsPersistenceEnabled() {
		t.Fatal("a healthy store keeps persistence enabled")
	}
	if a.Tracker().User() != "ann" {
		t.Errorf("User() = %q", a.Tracker().User())
	}

	res, err := a.Tracker().SetMode(ctx, "gamified")
	if err != nil || !res.Persisted {
		t.Fatalf("SetMode() = %+v, %v", res, err)
	}
	if _, ok, _ := a.Store().Get(ctx, store.Key("ann", reconcile.KeySettings)); !ok {
		t.Error("settings should be stored under the configured user")
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	t.Parallel()
	cfg := config.ForEnvironment("test")
	cfg.Store.Backend = "redis"

	if _, err := NewApp(context.Background(), cfg); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}

func TestStartup_StoreFailureDisablesPersistence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mock := services.NewMockStore()
	mock.SetFailureModes(true, false)
	logger := &testutils.RecordingLogger{}

	a := NewAppWithStore(config.ForEnvironment("test"), mock, logger)
	a.Startup(ctx)

	if a.Tracker().IsPersistenceEnabled() {
		t.Error("persistence should be disabled when the user cannot be loaded")
	}
	if !logger.Contains("WARN", "without persistence") {
		t.Error("degradation should be logged")
	}
	if len(a.Tracker().Habits()) == 0 {
		t.Error("tracker should fall back to the default habits")
	}
}

func TestStartup_NilStore(t *testing.T) {
	t.Parallel()
	a := NewAppWithStore(nil, nil, logging.NopLogger{})
	a.Startup(context.Background())

	if a.Tracker().IsPersistenceEnabled() {
		t.Error("persistence should be disabled without a store")
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() without a store should be a no-op: %v", err)
	}
}

func TestTrackerConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.User = "ann"
	cfg.Tracking.WindowDays = 14
	cfg.Gamification.XPPerCompletion = 20
	cfg.Gamification.LevelMultiplier = 1.5

	tc := TrackerConfig(cfg)
	if tc.User != "ann" || tc.WindowDays != 14 || !tc.PersistenceEnabled {
		t.Errorf("unexpected tracker config %+v", tc)
	}
	if tc.Gamification.XPPerCompletion != 20 || tc.Gamification.LevelMultiplier != 1.5 {
		t.Errorf("unexpected gamification engine %+v", tc.Gamification)
	}
}
