package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kaizen/internal/app"
	"kaizen/internal/config"
	trackerrors "kaizen/internal/infrastructure/errors"
	"kaizen/internal/infrastructure/logging"
	"kaizen/internal/store"
	"kaizen/internal/types"
)

var cliNow = time.Date(2024, 1, 30, 12, 0, 0, 0, time.Local)

// sharedStore survives the shutdown at the end of each invocation
type sharedStore struct {
	store.Store
}

func (sharedStore) Close() error { return nil }

type harness struct {
	t     *testing.T
	store store.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{t: t, store: sharedStore{store.NewMemoryStore()}}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cmd, rt := newRoot(Options{
		Out: &out,
		Err: &out,
		Now: func() time.Time { return cliNow },
		OpenApp: func(ctx context.Context, cfg *config.Config) (*app.App, error) {
			return app.NewAppWithStore(cfg, h.store, logging.NopLogger{}), nil
		},
	})
	defer rt.close()

	cmd.SetArgs(append([]string{"--no-color", "--config", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("kaizen %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestHabitList_Defaults(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out := h.mustRun("habit", "list")
	assertContains(t, out, "Habits", "Meditation", "Read 20 pages", "Exercise", "target 80%", "5/week")
}

func TestToggleAndDay(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out := h.mustRun("toggle", "meditation")
	assertContains(t, out, "✓ Meditation done on 2024-01-30")
	if strings.Contains(out, "not saved") {
		t.Errorf("toggle should be persisted:\n%s", out)
	}

	out = h.mustRun("day")
	assertContains(t, out, "2024-01-30", "Meditation")

	out = h.mustRun("toggle", "default-med", "--date", "2024-01-29")
	assertContains(t, out, "done on 2024-01-29")

	out = h.mustRun("toggle", "Meditation")
	assertContains(t, out, "unmarked on 2024-01-30")

	out = h.mustRun("day", "2024-01-30")
	assertContains(t, out, "nothing completed")

	if _, err := h.run("day", "30/01/2024"); !trackerrors.IsValidation(err) {
		t.Errorf("expected validation error for a malformed date, got %v", err)
	}
}

func TestToggle_Errors(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	if _, err := h.run("toggle", "nope"); !trackerrors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := h.run("toggle", "default-"); !trackerrors.IsValidation(err) {
		t.Errorf("ambiguous prefix: expected validation error, got %v", err)
	}
	if _, err := h.run("toggle"); err == nil {
		t.Error("missing argument should fail")
	}
}

func TestQuitJourney(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out := h.mustRun("habit", "add", "Smoking", "--kind", "quit", "--quit-date", "2024-01-27", "--cost", "10")
	assertContains(t, out, "Added quit habit Smoking")

	out = h.mustRun("quit-status", "smoking")
	assertContains(t, out, "Smoking", "3d 12h 0m", "Money saved", "35.00", "Relapses")

	out = h.mustRun("relapse", "Smoking", "--trigger", "stress")
	assertContains(t, out, "Relapse logged for Smoking after 3 days, 12 hours")

	out = h.mustRun("heatmap", "Smoking")
	assertContains(t, out, "2024-01-27", "3 days success, 1 day relapse")

	out = h.mustRun("quit-status")
	assertContains(t, out, "Triggers", "stress (1)")

	if _, err := h.run("toggle", "Smoking"); !trackerrors.IsValidation(err) {
		t.Errorf("toggling a quit habit: expected validation error, got %v", err)
	}
	if _, err := h.run("relapse", "Meditation"); !trackerrors.IsValidation(err) {
		t.Errorf("relapse of a build habit: expected validation error, got %v", err)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.mustRun("toggle", "meditation")
	h.mustRun("toggle", "meditation", "--date", "2024-01-29")

	out := h.mustRun("stats")
	assertContains(t, out, "=== Dashboard ===", "Best live streak: 2 days (Meditation)", "Meditation", "7%")

	out = h.mustRun("stats", "meditation")
	assertContains(t, out, "Meditation", "[F] 7%", "target 80%, -73", "off track", "2 days (longest 2)", "Today", "done")
}

func TestGamifiedHero(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out := h.mustRun("hero")
	assertContains(t, out, "level 1", "0/500", "Gamified mode is off")

	h.mustRun("mode", "gamified")
	out = h.mustRun("mode")
	assertContains(t, out, "mode: gamified")

	out = h.mustRun("toggle", "default-reading")
	assertContains(t, out, "+15 XP, level 1 (15/500)")

	out = h.mustRun("hero")
	assertContains(t, out, "15/500")

	out = h.mustRun("hero", "--reset")
	assertContains(t, out, "hero reset", "0/500")

	if _, err := h.run("mode", "party"); !trackerrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHabitEditAndRemove(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out := h.mustRun("habit", "edit", "Exercise", "--kind", "quit", "--name", "No sugar")
	assertContains(t, out, "Updated No sugar (quit)")

	out = h.mustRun("habit", "list")
	assertContains(t, out, "No sugar", "quit since")

	out = h.mustRun("habit", "rm", "default-reading")
	assertContains(t, out, "Deleted Read 20 pages")

	out = h.mustRun("habit", "list")
	if strings.Contains(out, "Read 20 pages") {
		t.Errorf("deleted habit still listed:\n%s", out)
	}

	if _, err := h.run("habit", "add", "Bad", "--color", "blue"); !trackerrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := h.run("habit", "add"); err == nil {
		t.Error("missing name should fail")
	}
}

func TestExportImport(t *testing.T) {
	t.Parallel()
	src := newHarness(t)
	src.mustRun("habit", "add", "Journal", "--goal", "3")
	src.mustRun("toggle", "Journal")

	path := filepath.Join(t.TempDir(), "export.json")
	out := src.mustRun("export", "--output", path)
	assertContains(t, out, "exported 5 collections")

	stdout := src.mustRun("export")
	assertContains(t, stdout, `"habits"`, `"tracking"`, `"settings"`, "Journal")

	dst := newHarness(t)
	out = dst.mustRun("import", path)
	assertContains(t, out, "imported 4 habits and 1 day of tracking")

	out = dst.mustRun("habit", "list")
	assertContains(t, out, "Journal")

	if _, err := dst.run("import", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing import file should fail")
	}
}

func TestUsersIsolation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.mustRun("toggle", "meditation")
	h.mustRun("--user", "ann", "habit", "add", "Piano")

	out := h.mustRun("--user", "ann", "habit", "list")
	assertContains(t, out, "Piano")

	out = h.mustRun("habit", "list")
	if strings.Contains(out, "Piano") {
		t.Errorf("default user should not see ann's habits:\n%s", out)
	}

	out = h.mustRun("--user", "ann", "users")
	assertContains(t, out, "* ann", "  default")
}

func TestDBCommands_RequireSQLite(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.run("db", "version")
	if err == nil || !strings.Contains(err.Error(), "does not support") {
		t.Errorf("expected unsupported backend error, got %v", err)
	}
}

func TestConfigInit(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "kaizen.yaml")

	out := h.mustRun("--config", path, "config", "init")
	assertContains(t, out, "wrote "+path)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := h.run("--config", path, "config", "init"); err == nil {
		t.Error("existing file should not be overwritten without --force")
	}
	h.mustRun("--config", path, "config", "init", "--force")

	out = h.mustRun("--config", path, "--user", "ann", "config", "show")
	assertContains(t, out, "user: ann", "backend: sqlite", "windowDays: 30")
}

func TestResolveHabit(t *testing.T) {
	t.Parallel()
	habits := []types.Habit{
		types.NewBuildHabit("abc123", "Read", 80),
		types.NewBuildHabit("abd456", "Run", 80),
		types.NewBuildHabit("xyz", "abc", 80),
	}

	tests := []struct {
		ref      string
		wantID   string
		notFound bool
		ambig    bool
	}{
		{ref: "abc123", wantID: "abc123"},
		{ref: "abd", wantID: "abd456"},
		{ref: "run", wantID: "abd456"},
		{ref: " READ ", wantID: "abc123"},
		{ref: "ab", ambig: true},
		{ref: "abc", ambig: true},
		{ref: "zzz", notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()
			h, err := resolveHabit(habits, tt.ref)
			switch {
			case tt.notFound:
				if !trackerrors.IsNotFound(err) {
					t.Errorf("expected not found, got %v", err)
				}
			case tt.ambig:
				if !trackerrors.IsValidation(err) {
					t.Errorf("expected ambiguity error, got %v", err)
				}
			default:
				if err != nil || h.ID != tt.wantID {
					t.Errorf("resolveHabit(%q) = %q, %v; want %q", tt.ref, h.ID, err, tt.wantID)
				}
			}
		})
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fraction float64
		want     string
	}{
		{0, "[░░░░]"},
		{0.5, "[██░░]"},
		{1, "[████]"},
		{1.7, "[████]"},
		{-1, "[░░░░]"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.fraction, 4); got != tt.want {
			t.Errorf("progressBar(%v) = %q, want %q", tt.fraction, got, tt.want)
		}
	}
}
