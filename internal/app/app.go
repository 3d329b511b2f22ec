package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"kaizen/internal/config"
	"kaizen/internal/gamification"
	"kaizen/internal/infrastructure/errors"
	"kaizen/internal/infrastructure/logging"
	"kaizen/internal/services"
	"kaizen/internal/store"
)

const (
	openTimeout     = 30 * time.Second
	healthTimeout   = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// healthChecker is implemented by backends that can verify their connection
type healthChecker interface {
	Health(ctx context.Context) error
}

// App wires configuration, logging, the document store and the habit
// tracker together
type App struct {
	config  *config.Config
	tracker *services.HabitTracker
	store   store.Store
	logger  logging.Logger
}

// NewApp opens the configured store and creates a tracker for the
// configured user. Call Startup to hydrate it.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	logger := logging.NewLogger(cfg.Level(), os.Stderr)
	errors.SetRetryLogger(logger)

	openCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	s, err := store.Open(openCtx, cfg.Store, logger)
	if err != nil {
		return nil, errors.NewRepositoryErrorWithContext("startup",
			err,
			errors.ClassifyError(err),
			map[string]string{
				"operation": "open_store",
				"backend":   cfg.Store.Backend,
			})
	}

	return NewAppWithStore(cfg, s, logger), nil
}

// NewAppWithStore wires an already opened store
func NewAppWithStore(cfg *config.Config, s store.Store, logger logging.Logger) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	tracker := services.NewHabitTracker(s, TrackerConfig(cfg), logger)

	return &App{
		config:  cfg,
		tracker: tracker,
		store:   s,
		logger:  logger,
	}
}

// TrackerConfig derives the tracker tunables from the application config
func TrackerConfig(cfg *config.Config) services.TrackerConfig {
	tc := services.DefaultTrackerConfig()
	tc.User = cfg.User
	tc.WindowDays = cfg.Tracking.WindowDays
	tc.Gamification = gamification.New(cfg.Gamification.XPPerCompletion, cfg.Gamification.LevelMultiplier)
	return tc
}

// Startup checks the store and hydrates the tracker. When the store is
// unusable the tracker keeps running on defaults with persistence disabled.
func (a *App) Startup(ctx context.Context) {
	if err := a.initializeStore(ctx); err != nil {
		logging.LogError(a.logger, err, "startup", map[string]interface{}{"backend": a.config.Store.Backend})
		a.logger.Warn("Continuing without persistence - changes will not be saved")
		a.tracker.SetPersistenceEnabled(false)
		return
	}

	if err := a.tracker.LoadUser(ctx); err != nil {
		logging.LogError(a.logger, err, "startup", map[string]interface{}{"user": a.config.User})
		a.logger.Warn("Continuing without persistence - changes will not be saved")
		a.tracker.SetPersistenceEnabled(false)
		return
	}

	a.logger.Debug("Application started", "environment", a.config.Environment, "user", a.tracker.User())
}

// initializeStore verifies the store connection when the backend supports it
func (a *App) initializeStore(ctx context.Context) error {
	if a.store == nil {
		return errors.NewRepositoryError("startup",
			fmt.Errorf("store not initialized"),
			errors.ErrCodeConnection)
	}

	checker, ok := a.store.(healthChecker)
	if !ok {
		return nil
	}

	healthCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := checker.Health(healthCtx); err != nil {
		return errors.NewRepositoryErrorWithContext("startup",
			err,
			errors.ClassifyError(err),
			map[string]string{
				"operation": "health_check",
			})
	}
	return nil
}

// Shutdown closes the store, giving up after a timeout
func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := a.closeStore(shutdownCtx); err != nil {
		logging.LogError(a.logger, err, "shutdown", nil)
		return err
	}
	return nil
}

// closeStore closes the store in the background so a stuck backend cannot
// block shutdown past the context deadline
func (a *App) closeStore(ctx context.Context) error {
	if a.store == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- a.store.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.NewRepositoryErrorWithContext("shutdown",
				err,
				errors.ClassifyError(err),
				map[string]string{
					"operation": "close_store",
				})
		}
		a.logger.Debug("Store closed")
		return nil
	case <-ctx.Done():
		return errors.NewRepositoryError("shutdown",
			ctx.Err(),
			errors.ErrCodeTimeout)
	}
}

// Tracker returns the habit tracker
func (a *App) Tracker() *services.HabitTracker {
	return a.tracker
}

// Store returns the document store
func (a *App) Store() store.Store {
	return a.store
}

// Config returns the application configuration
func (a *App) Config() *config.Config {
	return a.config
}

// GetLogger returns the application's structured logger
func (a *App) GetLogger() logging.Logger {
	return a.logger
}
