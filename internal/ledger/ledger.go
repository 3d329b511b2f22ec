// Package ledger owns the date -> completed habit ids mapping. A Ledger value
// is immutable: Toggle returns a new ledger and leaves the receiver intact so
// readers of an older snapshot stay valid.
package ledger

import (
	"sort"
	"time"

	"kaizen/internal/dates"
	"kaizen/internal/types"
)

// Ledger is a copy-on-write view over TrackingData
type Ledger struct {
	days types.TrackingData
}

// New wraps tracking data. The data is copied so later mutation by the
// caller cannot leak into the ledger.
func New(data types.TrackingData) Ledger {
	if data == nil {
		return Ledger{days: types.TrackingData{}}
	}
	return Ledger{days: data.Clone()}
}

// Data returns a copy of the underlying tracking data
func (l Ledger) Data() types.TrackingData {
	if l.days == nil {
		return types.TrackingData{}
	}
	return l.days.Clone()
}

// Toggle flips the completion of habitID on the given date key. Only the
// touched day is copied; other days are shared with the receiver because
// they are never written again.
func (l Ledger) Toggle(habitID, date string) Ledger {
	next := make(types.TrackingData, len(l.days)+1)
	for k, v := range l.days {
		next[k] = v
	}

	ids := l.days[date]
	if contains(ids, habitID) {
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != habitID {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(next, date)
		} else {
			next[date] = kept
		}
	} else {
		added := make([]string, 0, len(ids)+1)
		added = append(added, ids...)
		next[date] = append(added, habitID)
	}

	return Ledger{days: next}
}

// ToggleAt is Toggle keyed by the civil date of t
func (l Ledger) ToggleAt(habitID string, t time.Time) Ledger {
	return l.Toggle(habitID, dates.Key(t))
}

// IsComplete reports whether habitID was completed on the date key
func (l Ledger) IsComplete(habitID, date string) bool {
	return contains(l.days[date], habitID)
}

// IsCompleteAt is IsComplete keyed by the civil date of t
func (l Ledger) IsCompleteAt(habitID string, t time.Time) bool {
	return l.IsComplete(habitID, dates.Key(t))
}

// CompletedOn returns the sorted, de-duplicated ids completed on a date
func (l Ledger) CompletedOn(date string) []string {
	seen := make(map[string]struct{}, len(l.days[date]))
	out := make([]string, 0, len(l.days[date]))
	for _, id := range l.days[date] {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CompletionDates returns the ascending date keys on which habitID was
// completed
func (l Ledger) CompletionDates(habitID string) []string {
	var out []string
	for _, date := range l.days.SortedDates() {
		if contains(l.days[date], habitID) {
			out = append(out, date)
		}
	}
	return out
}

// Len returns the number of dates with at least one entry
func (l Ledger) Len() int {
	return len(l.days)
}

// Equal compares two ledgers as sets: id order and duplicates within a day
// are ignored, and an empty day equals an absent one.
func Equal(a, b Ledger) bool {
	return covers(a, b) && covers(b, a)
}

func covers(a, b Ledger) bool {
	for date := range a.days {
		left, right := a.CompletedOn(date), b.CompletedOn(date)
		if len(left) != len(right) {
			return false
		}
		for i := range left {
			if left[i] != right[i] {
				return false
			}
		}
	}
	return true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
