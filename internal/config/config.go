package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"kaizen/internal/database"
	"kaizen/internal/gamification"
	"kaizen/internal/infrastructure/logging"
	"kaizen/internal/stats"
	"kaizen/internal/store"
)

// DefaultPath is the configuration file looked up when none is given
const DefaultPath = "kaizen.yaml"

var configValidate = validator.New()

// Config is the application configuration
type Config struct {
	Environment  string             `yaml:"environment" validate:"oneof=development test production"`
	LogLevel     string             `yaml:"logLevel" validate:"oneof=debug info warn warning error"`
	User         string             `yaml:"user" validate:"required,max=64"`
	Store        store.Config       `yaml:"store" validate:"-"`
	Tracking     TrackingConfig     `yaml:"tracking"`
	Gamification GamificationConfig `yaml:"gamification"`
}

// TrackingConfig tunes the build-habit statistics
type TrackingConfig struct {
	WindowDays int `yaml:"windowDays" validate:"gt=0,lte=366"`
}

// GamificationConfig tunes the hero leveling curve
type GamificationConfig struct {
	XPPerCompletion int     `yaml:"xpPerCompletion" validate:"gt=0"`
	LevelMultiplier float64 `yaml:"levelMultiplier" validate:"gt=1"`
}

// Default returns the production configuration
func Default() *Config {
	return ForEnvironment("production")
}

// ForEnvironment returns the defaults with the database preset of env
func ForEnvironment(env string) *Config {
	storeConfig := store.DefaultConfig()
	storeConfig.SQLite = database.ConfigForEnvironment(env)
	if env == "test" {
		storeConfig.Backend = store.BackendMemory
		storeConfig.Badger = store.InMemoryBadgerConfig()
	}

	level := "info"
	if env == "development" {
		level = "debug"
	}

	return &Config{
		Environment: storeConfig.SQLite.Environment,
		LogLevel:    level,
		User:        store.DefaultUser,
		Store:       storeConfig,
		Tracking:    TrackingConfig{WindowDays: stats.DefaultWindowDays},
		Gamification: GamificationConfig{
			XPPerCompletion: gamification.DefaultXPPerCompletion,
			LevelMultiplier: gamification.DefaultLevelMultiplier,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// KAIZEN_* environment variables, then validates it. An empty path skips
// the file; a missing DefaultPath is not an error.
func Load(path string) (*Config, error) {
	env := strings.TrimSpace(os.Getenv("KAIZEN_ENVIRONMENT"))
	if env == "" {
		env = "production"
	}
	cfg := ForEnvironment(env)

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if !(path == DefaultPath && errors.Is(err, os.ErrNotExist)) {
				return nil, err
			}
		}
	}

	cfg.LoadFromEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing YAML %s: %w", path, err)
	}
	return nil
}

// LoadFromEnvironment applies KAIZEN_* overrides. Unparseable values are
// ignored and keep the current setting.
func (c *Config) LoadFromEnvironment() {
	if env := os.Getenv("KAIZEN_ENVIRONMENT"); env != "" {
		c.Environment = env
	}
	if level := os.Getenv("KAIZEN_LOG_LEVEL"); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
	if user := os.Getenv("KAIZEN_USER"); user != "" {
		c.User = user
	}

	if backend := os.Getenv("KAIZEN_STORE_BACKEND"); backend != "" {
		c.Store.Backend = strings.ToLower(backend)
	}
	if c.Store.SQLite == nil {
		c.Store.SQLite = database.ConfigForEnvironment(c.Environment)
	}
	c.Store.SQLite.LoadFromEnvironment()

	if path := os.Getenv("KAIZEN_BADGER_PATH"); path != "" {
		c.Store.Badger.Path = path
	}
	if inMemory, present := database.ParseBoolEnv("KAIZEN_BADGER_IN_MEMORY"); present {
		c.Store.Badger.InMemory = inMemory
	}
	if syncWrites, present := database.ParseBoolEnv("KAIZEN_BADGER_SYNC_WRITES"); present {
		c.Store.Badger.SyncWrites = syncWrites
	}

	if val, err := strconv.Atoi(os.Getenv("KAIZEN_WINDOW_DAYS")); err == nil && val > 0 {
		c.Tracking.WindowDays = val
	}
	if val, err := strconv.Atoi(os.Getenv("KAIZEN_XP_PER_COMPLETION")); err == nil && val > 0 {
		c.Gamification.XPPerCompletion = val
	}
	if val, err := strconv.ParseFloat(os.Getenv("KAIZEN_LEVEL_MULTIPLIER"), 64); err == nil && val > 1 {
		c.Gamification.LevelMultiplier = val
	}
}

// Validate checks every section and the selected store backend
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return c.Store.Validate()
}

// Level returns the parsed log level
func (c *Config) Level() logging.Level {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.LevelInfo
	}
	return level
}

// Save writes the configuration as YAML, creating the parent directory
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
