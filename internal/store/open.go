package store

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"kaizen/internal/database"
	"kaizen/internal/infrastructure/logging"
)

var storeValidate = validator.New()

// Config selects and configures a backend. Only the selected backend's
// section is validated.
type Config struct {
	Backend string           `json:"backend" yaml:"backend" validate:"oneof=sqlite badger memory"`
	SQLite  *database.Config `json:"sqlite" yaml:"sqlite" validate:"-"`
	Badger  BadgerConfig     `json:"badger" yaml:"badger" validate:"-"`
}

// DefaultConfig uses the SQLite backend with production settings
func DefaultConfig() Config {
	return Config{
		Backend: BackendSQLite,
		SQLite:  database.DefaultConfig(),
		Badger:  DefaultBadgerConfig(),
	}
}

// Validate checks the backend name and the selected backend's settings
func (c Config) Validate() error {
	if err := storeValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid store config: %w", err)
	}
	switch c.Backend {
	case BackendSQLite:
		if c.SQLite == nil {
			return fmt.Errorf("invalid store config: sqlite section is missing")
		}
		return c.SQLite.Validate()
	case BackendBadger:
		if err := storeValidate.Struct(c.Badger); err != nil {
			return fmt.Errorf("invalid badger config: %w", err)
		}
	}
	return nil
}

// Open validates the configuration and opens the selected backend
func Open(ctx context.Context, cfg Config, logger logging.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLite, logger)
	case BackendBadger:
		return OpenBadger(cfg.Badger, logger)
	default:
		return NewMemoryStore(), nil
	}
}
