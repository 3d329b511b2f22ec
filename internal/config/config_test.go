package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kaizen/internal/infrastructure/logging"
	"kaizen/internal/store"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kaizen.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()

	if cfg.Environment != "production" || cfg.LogLevel != "info" || cfg.User != store.DefaultUser {
		t.Errorf("unexpected top-level defaults %+v", cfg)
	}
	if cfg.Store.Backend != store.BackendSQLite || cfg.Store.SQLite.Path != "kaizen.db" {
		t.Errorf("unexpected store defaults %+v", cfg.Store)
	}
	if cfg.Tracking.WindowDays != 30 {
		t.Errorf("WindowDays = %d, want 30", cfg.Tracking.WindowDays)
	}
	if cfg.Gamification.XPPerCompletion != 15 || cfg.Gamification.LevelMultiplier != 1.2 {
		t.Errorf("unexpected gamification defaults %+v", cfg.Gamification)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestForEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env       string
		wantDB    string
		wantStore string
		wantLevel string
	}{
		{"production", "kaizen.db", store.BackendSQLite, "info"},
		{"development", "kaizen_dev.db", store.BackendSQLite, "debug"},
		{"test", ":memory:", store.BackendMemory, "info"},
		{"unknown", "kaizen.db", store.BackendSQLite, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			cfg := ForEnvironment(tt.env)
			if cfg.Store.SQLite.Path != tt.wantDB {
				t.Errorf("sqlite path = %q, want %q", cfg.Store.SQLite.Path, tt.wantDB)
			}
			if cfg.Store.Backend != tt.wantStore {
				t.Errorf("backend = %q, want %q", cfg.Store.Backend, tt.wantStore)
			}
			if cfg.LogLevel != tt.wantLevel {
				t.Errorf("log level = %q, want %q", cfg.LogLevel, tt.wantLevel)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	badgerDir := t.TempDir()
	path := writeFile(t, `
logLevel: debug
user: ann
store:
  backend: badger
  badger:
    path: `+badgerDir+`
  sqlite:
    busyTimeout: 250
    connMaxLifetime: 1h
tracking:
  windowDays: 14
gamification:
  levelMultiplier: 1.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.User != "ann" {
		t.Errorf("unexpected top-level values %+v", cfg)
	}
	if cfg.Store.Backend != store.BackendBadger || cfg.Store.Badger.Path != badgerDir {
		t.Errorf("unexpected store section %+v", cfg.Store)
	}
	if !cfg.Store.Badger.SyncWrites {
		t.Error("unset badger fields should keep their defaults")
	}
	if cfg.Store.SQLite.BusyTimeout != 250 || cfg.Store.SQLite.ConnMaxLifetime != time.Hour {
		t.Errorf("sqlite overrides not applied: %+v", cfg.Store.SQLite)
	}
	if cfg.Store.SQLite.JournalMode != "WAL" {
		t.Errorf("unset sqlite fields should keep their defaults, journal mode = %q", cfg.Store.SQLite.JournalMode)
	}
	if cfg.Tracking.WindowDays != 14 || cfg.Gamification.LevelMultiplier != 1.5 || cfg.Gamification.XPPerCompletion != 15 {
		t.Errorf("unexpected tunables %+v %+v", cfg.Tracking, cfg.Gamification)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("an explicit missing file should fail")
	}
	if _, err := Load(DefaultPath); err != nil {
		t.Errorf("a missing default file should be skipped: %v", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeFile(t, "store: [not, a, map\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parsing YAML") {
		t.Errorf("expected YAML parse error, got %v", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	path := writeFile(t, "user: ann\ntracking:\n  windowDays: 14\n")

	t.Setenv("KAIZEN_USER", "bob")
	t.Setenv("KAIZEN_STORE_BACKEND", "MEMORY")
	t.Setenv("KAIZEN_LOG_LEVEL", "WARN")
	t.Setenv("KAIZEN_WINDOW_DAYS", "7")
	t.Setenv("KAIZEN_XP_PER_COMPLETION", "20")
	t.Setenv("KAIZEN_LEVEL_MULTIPLIER", "abc")
	t.Setenv("KAIZEN_BADGER_IN_MEMORY", "yes")
	t.Setenv("KAIZEN_DB_BUSY_TIMEOUT", "750")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.User != "bob" {
		t.Errorf("environment should override the file, user = %q", cfg.User)
	}
	if cfg.Store.Backend != store.BackendMemory || cfg.LogLevel != "warn" {
		t.Errorf("values should be normalized, got backend %q level %q", cfg.Store.Backend, cfg.LogLevel)
	}
	if cfg.Tracking.WindowDays != 7 || cfg.Gamification.XPPerCompletion != 20 {
		t.Errorf("numeric overrides not applied: %+v %+v", cfg.Tracking, cfg.Gamification)
	}
	if cfg.Gamification.LevelMultiplier != 1.2 {
		t.Errorf("unparseable multiplier should be ignored, got %v", cfg.Gamification.LevelMultiplier)
	}
	if !cfg.Store.Badger.InMemory {
		t.Error("KAIZEN_BADGER_IN_MEMORY should be applied")
	}
	if cfg.Store.SQLite.BusyTimeout != 750 {
		t.Errorf("KAIZEN_DB_* should reach the sqlite section, busy timeout = %d", cfg.Store.SQLite.BusyTimeout)
	}
}

func TestLoad_TestEnvironmentPreset(t *testing.T) {
	t.Setenv("KAIZEN_ENVIRONMENT", "test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Environment != "test" || cfg.Store.Backend != store.BackendMemory || !cfg.Store.SQLite.IsInMemory() {
		t.Errorf("test preset not selected: %+v / %+v", cfg, cfg.Store.SQLite)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero window", "tracking:\n  windowDays: 0\n"},
		{"unknown backend", "store:\n  backend: redis\n"},
		{"empty user", "user: \"\"\n"},
		{"unknown level", "logLevel: loud\n"},
		{"flat curve", "gamification:\n  levelMultiplier: 1\n"},
		{"bad journal mode", "store:\n  sqlite:\n    journalMode: FAST\n"},
		{"badger without path", "store:\n  backend: badger\n  badger:\n    path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.User = "ann"
	cfg.Store.SQLite.Path = filepath.Join(dir, "data", "kaizen.db")
	cfg.Tracking.WindowDays = 21

	path := filepath.Join(dir, "conf", "kaizen.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.User != "ann" || loaded.Tracking.WindowDays != 21 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if loaded.Store.SQLite.Path != cfg.Store.SQLite.Path || loaded.Store.SQLite.ConnMaxLifetime != cfg.Store.SQLite.ConnMaxLifetime {
		t.Errorf("round trip lost sqlite values: %+v", loaded.Store.SQLite)
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want logging.Level
	}{
		{"debug", logging.LevelDebug},
		{"info", logging.LevelInfo},
		{"warning", logging.LevelWarn},
		{"error", logging.LevelError},
		{"bogus", logging.LevelInfo},
	}

	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		if got := cfg.Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
