package dates

import (
	"testing"
	"time"
)

func TestKey_UsesCivilDateNotUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-5", -5*3600)
	// 23:30 local on Jan 31 is already Feb 1 in UTC
	moment := time.Date(2024, 1, 31, 23, 30, 0, 0, loc)

	if got := Key(moment); got != "2024-01-31" {
		t.Errorf("Key() = %q, want 2024-01-31", got)
	}
	if got := MonthKey(moment); got != "2024-01" {
		t.Errorf("MonthKey() = %q, want 2024-01", got)
	}
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	got, err := ParseKey("2024-03-10", time.UTC)
	if err != nil {
		t.Fatalf("ParseKey() unexpected error = %v", err)
	}
	if !got.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseKey() = %v", got)
	}

	if _, err := ParseKey("not-a-date", time.UTC); err == nil {
		t.Error("ParseKey() expected error for malformed key")
	}
}

func TestAddDays_AcrossDST(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// DST starts 2024-03-10 in New York
	start := time.Date(2024, 3, 9, 0, 0, 0, 0, loc)
	keys := []string{"2024-03-09", "2024-03-10", "2024-03-11"}
	for i, want := range keys {
		if got := Key(AddDays(start, i)); got != want {
			t.Errorf("AddDays(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), 0},
		{"forward", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), 29},
		{"backward", time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), -29},
		{"leap year", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRange(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
	got := Range(start, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC))
	want := []string{"2024-01-30", "2024-01-31", "2024-02-01", "2024-02-02"}
	if len(got) != len(want) {
		t.Fatalf("Range() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Range()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := Range(start, AddDays(start, -1)); got != nil {
		t.Errorf("Range() with end before start = %v, want nil", got)
	}
}

func TestWeekStart(t *testing.T) {
	t.Parallel()

	// 2024-01-07 is a Sunday, the week started Monday 2024-01-01
	if got := Key(WeekStart(time.Date(2024, 1, 7, 15, 0, 0, 0, time.UTC))); got != "2024-01-01" {
		t.Errorf("WeekStart(Sunday) = %q, want 2024-01-01", got)
	}
	if got := Key(WeekStart(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))); got != "2024-01-08" {
		t.Errorf("WeekStart(Monday) = %q, want 2024-01-08", got)
	}
}

func TestDecompose(t *testing.T) {
	t.Parallel()

	e := Decompose(2*86400 + 3*3600 + 4*60 + 5)
	want := Elapsed{Days: 2, Hours: 3, Minutes: 4, Seconds: 5}
	if e != want {
		t.Errorf("Decompose() = %+v, want %+v", e, want)
	}
	if e.TotalSeconds() != 2*86400+3*3600+4*60+5 {
		t.Errorf("TotalSeconds() = %d", e.TotalSeconds())
	}

	if got := Decompose(-10); got != (Elapsed{}) {
		t.Errorf("Decompose(-10) = %+v, want zero", got)
	}
}

func TestElapsedSince_ClampsFuture(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := ElapsedSince(now.Add(time.Hour), now); got != (Elapsed{}) {
		t.Errorf("ElapsedSince(future) = %+v, want zero", got)
	}
	if got := ElapsedSince(now.Add(-90*time.Minute), now); got != (Elapsed{Hours: 1, Minutes: 30}) {
		t.Errorf("ElapsedSince() = %+v", got)
	}
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds  int64
		short    string
		longForm string
	}{
		{0, "0s", "0 minutes"},
		{59, "59s", "0 minutes"},
		{61, "1m 1s", "1 minute"},
		{3600 + 120, "1h 2m", "1 hour, 2 minutes"},
		{86400 + 3600, "1d 1h 0m", "1 day, 1 hour"},
		{3 * 86400, "3d 0h 0m", "3 days"},
	}

	for _, tt := range tests {
		if got := Decompose(tt.seconds).String(); got != tt.short {
			t.Errorf("Decompose(%d).String() = %q, want %q", tt.seconds, got, tt.short)
		}
		if got := FormatSeconds(tt.seconds); got != tt.longForm {
			t.Errorf("FormatSeconds(%d) = %q, want %q", tt.seconds, got, tt.longForm)
		}
	}
}
