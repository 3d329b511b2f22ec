package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
)

func TestClassifyError(t *testing.T) {
	type sample struct {
		Name string `validate:"required"`
	}
	validationErr := validator.New().Struct(sample{})

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ErrCodeUnknown},
		{"no rows", sql.ErrNoRows, ErrCodeNotFound},
		{"conn done", sql.ErrConnDone, ErrCodeClosed},
		{"closed sentinel", ErrClosed, ErrCodeClosed},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", fmt.Errorf("wrapped: %w", context.Canceled), ErrCodeTimeout},
		{"validator", validationErr, ErrCodeValidation},
		{"badger key not found", badger.ErrKeyNotFound, ErrCodeNotFound},
		{"badger conflict", fmt.Errorf("commit: %w", badger.ErrConflict), ErrCodeTransaction},
		{"badger closed", badger.ErrDBClosed, ErrCodeClosed},
		{"badger blocked writes", badger.ErrBlockedWrites, ErrCodeBusy},
		{"badger empty key", badger.ErrEmptyKey, ErrCodeValidation},
		{"string unique", errors.New("UNIQUE constraint failed: documents.key"), ErrCodeDuplicate},
		{"string locked", errors.New("database is locked"), ErrCodeBusy},
		{"string db closed", errors.New("sql: database is closed"), ErrCodeClosed},
		{"string malformed", errors.New("database disk image is malformed"), ErrCodeCorruption},
		{"string no table", errors.New("no such table: documents"), ErrCodeSchema},
		{"string disk", errors.New("write: no space left on device"), ErrCodeDiskSpace},
		{"unknown", errors.New("something odd"), ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapStoreError(t *testing.T) {
	if WrapStoreError("get", nil) != nil {
		t.Error("WrapStoreError(nil) should be nil")
	}

	err := WrapStoreErrorWithContext("get", badger.ErrKeyNotFound, map[string]string{"key": "k"})
	var repoErr *RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected *RepositoryError, got %T", err)
	}
	if repoErr.Code != ErrCodeNotFound || repoErr.Context["key"] != "k" || repoErr.Op != "get" {
		t.Errorf("unexpected wrap %+v", repoErr)
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		t.Error("wrapped sentinel should stay matchable")
	}

	// Already classified errors are passed through untouched
	if again := WrapStoreError("outer", err); again != err {
		t.Error("WrapStoreError() re-wrapped a classified error")
	}
}

func TestHandleValidationError(t *testing.T) {
	type habit struct {
		Name  string `validate:"required"`
		Score int    `validate:"lte=100"`
	}
	verr := validator.New().Struct(habit{Score: 500})

	err := HandleValidationError("add_habit", "habit", verr)
	if !IsValidation(err) {
		t.Fatal("IsValidation() = false")
	}

	var repoErr *RepositoryError
	errors.As(err, &repoErr)
	if got := repoErr.Context["fields"]; got != "Name:required,Score:lte" {
		t.Errorf("fields context = %q", got)
	}

	if !IsValidation(HandleValidationError("add_habit", "habit", nil)) {
		t.Error("nil cause should still produce a validation error")
	}
}
