// Package reconcile turns untrusted persisted documents into a structurally
// valid State. Each collection is decoded independently; anything unusable is
// replaced by that collection's default and logged, never returned as an
// error.
package reconcile

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"kaizen/internal/infrastructure/logging"
	"kaizen/internal/types"
)

// Collection names, one persisted document each
const (
	KeyHabits   = "habits"
	KeyTracking = "tracking"
	KeyJournal  = "journal"
	KeyFinance  = "finance"
	KeySettings = "settings"
)

// Collections lists every persisted collection in load order
var Collections = []string{KeyHabits, KeyTracking, KeyJournal, KeyFinance, KeySettings}

// Documents maps a collection name to its raw persisted text. A missing
// entry is treated as absent.
type Documents map[string]string

// Reconciler decodes documents against a set of defaults
type Reconciler struct {
	defaults types.State
	logger   logging.Logger
}

// New creates a reconciler using the compiled-in defaults
func New(logger logging.Logger) *Reconciler {
	return NewWithDefaults(types.DefaultState(), logger)
}

// NewWithDefaults creates a reconciler with explicit defaults
func NewWithDefaults(defaults types.State, logger logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Reconciler{defaults: defaults, logger: logger}
}

// Load reconciles every collection
func (r *Reconciler) Load(docs Documents) types.State {
	return types.State{
		Habits:   r.Habits(docs[KeyHabits]),
		Tracking: r.Tracking(docs[KeyTracking]),
		Journal:  r.Array(KeyJournal, docs[KeyJournal]),
		Finance:  r.Array(KeyFinance, docs[KeyFinance]),
		Settings: r.Settings(docs[KeySettings]),
	}
}

// parse returns the parsed value and false when the text is absent, null or
// not valid JSON. Invalid JSON is logged.
func (r *Reconciler) parse(key, raw string) (gjson.Result, bool) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return gjson.Result{}, false
	}
	if !gjson.ValidBytes(trimmed) {
		r.corrupt(key, "invalid JSON")
		return gjson.Result{}, false
	}
	res := gjson.ParseBytes(trimmed)
	if res.Type == gjson.Null {
		return res, false
	}
	return res, true
}

func (r *Reconciler) corrupt(key, reason string, fields ...interface{}) {
	fields = append([]interface{}{"collection", key, "reason", reason}, fields...)
	r.logger.Warn("Discarding persisted collection, using defaults", fields...)
}

// Habits decodes the habit list. The whole list is replaced by the defaults
// when it is not an array, any element is not an object with an id, or any
// decoded habit fails validation.
func (r *Reconciler) Habits(raw string) []types.Habit {
	res, ok := r.parse(KeyHabits, raw)
	if !ok {
		return cloneHabits(r.defaults.Habits)
	}
	if !res.IsArray() {
		r.corrupt(KeyHabits, "not an array", "type", res.Type.String())
		return cloneHabits(r.defaults.Habits)
	}

	valid := true
	res.ForEach(func(_, el gjson.Result) bool {
		if !el.IsObject() || el.Get("id").Type != gjson.String || el.Get("id").Str == "" {
			valid = false
		}
		return valid
	})
	if !valid {
		r.corrupt(KeyHabits, "malformed habit element")
		return cloneHabits(r.defaults.Habits)
	}

	habits := []types.Habit{}
	if err := json.Unmarshal([]byte(res.Raw), &habits); err != nil {
		r.corrupt(KeyHabits, "decode failed", "error", err)
		return cloneHabits(r.defaults.Habits)
	}
	for i, h := range habits {
		if err := h.Validate(); err != nil {
			r.corrupt(KeyHabits, "invalid habit", "index", i, "id", h.ID, "error", err)
			return cloneHabits(r.defaults.Habits)
		}
	}
	return habits
}

// Tracking decodes the date ledger; anything other than an object of
// string arrays becomes an empty ledger
func (r *Reconciler) Tracking(raw string) types.TrackingData {
	res, ok := r.parse(KeyTracking, raw)
	if !ok {
		return r.defaults.Tracking.Clone()
	}
	if !res.IsObject() {
		r.corrupt(KeyTracking, "not an object", "type", res.Type.String())
		return r.defaults.Tracking.Clone()
	}

	data := types.TrackingData{}
	if err := json.Unmarshal([]byte(res.Raw), &data); err != nil {
		r.corrupt(KeyTracking, "decode failed", "error", err)
		return r.defaults.Tracking.Clone()
	}
	for date, ids := range data {
		if ids == nil {
			data[date] = []string{}
		}
	}
	return data
}

// Array keeps an opaque collection when it is a JSON array and substitutes
// an empty array otherwise. The kept bytes are in the compact, HTML-escaped
// form json.Marshal writes, so Serialize returns them unchanged.
func (r *Reconciler) Array(key, raw string) json.RawMessage {
	res, ok := r.parse(key, raw)
	if !ok {
		return emptyArray()
	}
	if !res.IsArray() {
		r.corrupt(key, "not an array", "type", res.Type.String())
		return emptyArray()
	}

	normalized, err := json.Marshal(json.RawMessage(res.Raw))
	if err != nil {
		r.corrupt(key, "normalize failed", "error", err)
		return emptyArray()
	}
	return json.RawMessage(normalized)
}

// Settings merges the persisted settings over the defaults one level deep:
// a partial nested object such as heroStats keeps the stored values and
// picks up defaults for fields it lacks.
func (r *Reconciler) Settings(raw string) types.Settings {
	res, ok := r.parse(KeySettings, raw)
	if !ok {
		return r.defaults.Settings
	}
	if !res.IsObject() {
		r.corrupt(KeySettings, "not an object", "type", res.Type.String())
		return r.defaults.Settings
	}

	base, err := json.Marshal(r.defaults.Settings)
	if err != nil {
		r.corrupt(KeySettings, "encode defaults failed", "error", err)
		return r.defaults.Settings
	}
	merged := string(base)
	defaults := gjson.ParseBytes(base)

	var mergeErr error
	res.ForEach(func(k, v gjson.Result) bool {
		key := gjson.Escape(k.String())
		def := defaults.Get(key)

		if def.IsObject() {
			if !v.IsObject() {
				r.logger.Warn("Ignoring non-object settings field", "field", k.String())
				return true
			}
			v.ForEach(func(sk, sv gjson.Result) bool {
				merged, mergeErr = sjson.SetRaw(merged, key+"."+gjson.Escape(sk.String()), sv.Raw)
				return mergeErr == nil
			})
			return mergeErr == nil
		}

		merged, mergeErr = sjson.SetRaw(merged, key, v.Raw)
		return mergeErr == nil
	})
	if mergeErr != nil {
		r.corrupt(KeySettings, "merge failed", "error", mergeErr)
		return r.defaults.Settings
	}

	settings := r.defaults.Settings
	if err := json.Unmarshal([]byte(merged), &settings); err != nil {
		r.corrupt(KeySettings, "decode failed", "error", err)
		return r.defaults.Settings
	}
	return settings
}

// Serialize encodes every collection of state to its persisted text
func Serialize(state types.State) (Documents, error) {
	docs := make(Documents, len(Collections))
	for _, key := range Collections {
		text, err := SerializeCollection(state, key)
		if err != nil {
			return nil, err
		}
		docs[key] = text
	}
	return docs, nil
}

// SerializeCollection encodes a single collection. Nil collections are
// written as their empty JSON shape.
func SerializeCollection(state types.State, key string) (string, error) {
	var v interface{}
	switch key {
	case KeyHabits:
		habits := state.Habits
		if habits == nil {
			habits = []types.Habit{}
		}
		v = habits
	case KeyTracking:
		tracking := state.Tracking
		if tracking == nil {
			tracking = types.TrackingData{}
		}
		v = tracking
	case KeyJournal:
		v = nonEmptyArray(state.Journal)
	case KeyFinance:
		v = nonEmptyArray(state.Finance)
	case KeySettings:
		v = state.Settings
	default:
		return "", &UnknownCollectionError{Key: key}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnknownCollectionError is returned for a collection name outside
// Collections
type UnknownCollectionError struct {
	Key string
}

func (e *UnknownCollectionError) Error() string {
	return "unknown collection: " + e.Key
}

func emptyArray() json.RawMessage {
	return json.RawMessage("[]")
}

func nonEmptyArray(m json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(m)) == 0 {
		return emptyArray()
	}
	return m
}

func cloneHabits(habits []types.Habit) []types.Habit {
	out := make([]types.Habit, len(habits))
	for i, h := range habits {
		out[i] = h.Clone()
	}
	return out
}
