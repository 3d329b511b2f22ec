package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var configValidate = validator.New()

// ParseBoolEnv reads an environment variable as a boolean. The second
// return is false when the variable is unset or unparseable. Accepts
// true/false, 1/0, t/f, yes/no, y/n and on/off in any case.
func ParseBoolEnv(key string) (bool, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return false, false
	}

	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed, true
	}

	switch strings.ToLower(value) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// Config holds the SQLite options of the document store
type Config struct {
	Path                  string        `json:"path" yaml:"path" validate:"required"`
	MaxConnections        int           `json:"maxConnections" yaml:"maxConnections" validate:"gt=0"`
	MaxIdleConns          int           `json:"maxIdleConns" yaml:"maxIdleConns" validate:"gte=0,ltefield=MaxConnections"`
	ConnMaxLifetime       time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime" validate:"gte=0"`
	ConnMaxIdleTime       time.Duration `json:"connMaxIdleTime" yaml:"connMaxIdleTime" validate:"gte=0"`
	ForceSingleConnection bool          `json:"forceSingleConnection" yaml:"forceSingleConnection"`

	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`

	JournalMode     string `json:"journalMode" yaml:"journalMode" validate:"oneof=WAL DELETE TRUNCATE PERSIST MEMORY OFF"`
	SynchronousMode string `json:"synchronousMode" yaml:"synchronousMode" validate:"oneof=OFF NORMAL FULL EXTRA"`
	CacheSize       int    `json:"cacheSize" yaml:"cacheSize" validate:"gt=0"`     // KB
	BusyTimeout     int    `json:"busyTimeout" yaml:"busyTimeout" validate:"gte=0"` // milliseconds

	Environment string `json:"environment" yaml:"environment" validate:"oneof=development test production"`
}

// DefaultConfig returns the production configuration
func DefaultConfig() *Config {
	return &Config{
		Path:            "kaizen.db",
		MaxConnections:  4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 24 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,

		AutoMigrate: true,

		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		CacheSize:       2000,
		BusyTimeout:     5000,

		Environment: "production",
	}
}

// DevelopmentConfig returns a configuration for local development
func DevelopmentConfig() *Config {
	config := DefaultConfig()
	config.Path = "kaizen_dev.db"
	config.Environment = "development"
	return config
}

// TestConfig returns an in-memory configuration. In-memory SQLite is per
// connection, so the pool is pinned to a single connection that never
// expires.
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = ":memory:"
	config.Environment = "test"
	config.ForceSingleConnection = true
	config.MaxConnections = 1
	config.MaxIdleConns = 1
	config.ConnMaxLifetime = 0
	config.ConnMaxIdleTime = 0
	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.CacheSize = 1000
	config.BusyTimeout = 1000
	return config
}

// ConfigForEnvironment returns the preset for env; unknown values get the
// production preset
func ConfigForEnvironment(env string) *Config {
	switch env {
	case "development":
		return DevelopmentConfig()
	case "test":
		return TestConfig()
	default:
		return DefaultConfig()
	}
}

// LoadFromEnvironment applies KAIZEN_DB_* overrides. Unparseable values
// are ignored and keep the current setting.
func (c *Config) LoadFromEnvironment() {
	if path := os.Getenv("KAIZEN_DB_PATH"); path != "" {
		c.Path = path
	}

	if val, err := strconv.Atoi(os.Getenv("KAIZEN_DB_MAX_CONNECTIONS")); err == nil && val > 0 {
		c.MaxConnections = val
	}
	if val, err := strconv.Atoi(os.Getenv("KAIZEN_DB_MAX_IDLE_CONNECTIONS")); err == nil && val >= 0 {
		c.MaxIdleConns = val
	}
	if val, err := time.ParseDuration(os.Getenv("KAIZEN_DB_CONN_MAX_LIFETIME")); err == nil {
		c.ConnMaxLifetime = val
	}
	if val, err := time.ParseDuration(os.Getenv("KAIZEN_DB_CONN_MAX_IDLE_TIME")); err == nil {
		c.ConnMaxIdleTime = val
	}
	if forceSingle, present := ParseBoolEnv("KAIZEN_DB_FORCE_SINGLE_CONNECTION"); present {
		c.ForceSingleConnection = forceSingle
	}

	if autoMigrate, present := ParseBoolEnv("KAIZEN_DB_AUTO_MIGRATE"); present {
		c.AutoMigrate = autoMigrate
	}

	if journalMode := os.Getenv("KAIZEN_DB_JOURNAL_MODE"); journalMode != "" {
		c.JournalMode = strings.ToUpper(journalMode)
	}
	if syncMode := os.Getenv("KAIZEN_DB_SYNCHRONOUS_MODE"); syncMode != "" {
		c.SynchronousMode = strings.ToUpper(syncMode)
	}
	if val, err := strconv.Atoi(os.Getenv("KAIZEN_DB_CACHE_SIZE")); err == nil && val > 0 {
		c.CacheSize = val
	}
	if val, err := strconv.Atoi(os.Getenv("KAIZEN_DB_BUSY_TIMEOUT")); err == nil && val >= 0 {
		c.BusyTimeout = val
	}

	if environment := os.Getenv("KAIZEN_ENVIRONMENT"); environment != "" {
		c.Environment = environment
	}
}

// Validate checks field ranges and creates the parent directory of a file
// database
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	if !c.IsInMemory() {
		dir := filepath.Dir(c.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}
	return nil
}

// GetConnectionString builds the go-sqlite3 DSN. Only the query string is
// URL-encoded; characters in the path that would start or split a query
// are escaped.
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	values.Set("_foreign_keys", "on")
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	// Negative cache size is interpreted by SQLite as KB
	values.Set("_cache_size", strconv.Itoa(-c.CacheSize))
	values.Set("_busy_timeout", strconv.Itoa(c.BusyTimeout))

	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}

	return path + "?" + values.Encode()
}

// Clone returns a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// IsInMemory reports whether the database lives only in memory
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}
