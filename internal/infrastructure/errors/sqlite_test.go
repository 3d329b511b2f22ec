package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
)

// asRepositoryFailure wraps a driver error the way the document repository
// reports a failed statement
func asRepositoryFailure(op, key string, err error) error {
	return NewRepositoryErrorWithContext(op, err, ClassifyError(err), map[string]string{"key": key})
}

func TestClassifyError_DocumentStoreFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		want      ErrorCode
		retryable bool
	}{
		{
			name: "second insert of a document key",
			err: asRepositoryFailure("PutDocument", "kaizen:ann:habits",
				sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}),
			want: ErrCodeDuplicate,
		},
		{
			name: "document written without a value",
			err: asRepositoryFailure("PutDocument", "kaizen:ann:tracking",
				sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}),
			want: ErrCodeConstraint,
		},
		{
			name:      "writer holds the file during a batch",
			err:       asRepositoryFailure("PutMany", "kaizen:ann:settings", sqlite3.Error{Code: sqlite3.ErrBusy}),
			want:      ErrCodeBusy,
			retryable: true,
		},
		{
			name: "busy while a WAL snapshot is replaced",
			err: asRepositoryFailure("GetDocument", "kaizen:ann:habits",
				sqlite3.Error{Code: sqlite3.ErrBusy, ExtendedCode: sqlite3.ErrBusySnapshot}),
			want:      ErrCodeBusy,
			retryable: true,
		},
		{
			name:      "documents table locked by another statement",
			err:       asRepositoryFailure("DeletePrefix", "kaizen:ann:", sqlite3.Error{Code: sqlite3.ErrLocked}),
			want:      ErrCodeBusy,
			retryable: true,
		},
		{
			name:      "short read from the database file",
			err:       asRepositoryFailure("ListDocuments", "kaizen:", sqlite3.Error{Code: sqlite3.ErrIoErr, ExtendedCode: sqlite3.ErrIoErrShortRead}),
			want:      ErrCodeConnection,
			retryable: true,
		},
		{
			name: "kaizen.db is not a database",
			err:  fmt.Errorf("failed to run migrations: %w", sqlite3.Error{Code: sqlite3.ErrNotADB}),
			want: ErrCodeCorruption,
		},
		{
			name: "damaged page in kaizen.db",
			err:  asRepositoryFailure("GetDocument", "kaizen:ann:habits", sqlite3.Error{Code: sqlite3.ErrCorrupt}),
			want: ErrCodeCorruption,
		},
		{
			name: "store opened read-only",
			err:  asRepositoryFailure("PutDocument", "kaizen:ann:habits", sqlite3.Error{Code: sqlite3.ErrReadonly}),
			want: ErrCodePermission,
		},
		{
			name: "volume out of space",
			err:  asRepositoryFailure("PutMany", "kaizen:ann:tracking", sqlite3.Error{Code: sqlite3.ErrFull}),
			want: ErrCodeDiskSpace,
		},
		{
			name:      "optimize interrupted",
			err:       asRepositoryFailure("Optimize", "", sqlite3.Error{Code: sqlite3.ErrInterrupt}),
			want:      ErrCodeTimeout,
			retryable: true,
		},
		{
			name: "schema changed under a prepared statement",
			err:  asRepositoryFailure("ListDocuments", "kaizen:", sqlite3.Error{Code: sqlite3.ErrSchema}),
			want: ErrCodeSchema,
		},
		{
			name: "statement used after close",
			err:  sqlite3.Error{Code: sqlite3.ErrMisuse},
			want: ErrCodeInternal,
		},
		{
			name: "bind index out of range",
			err:  sqlite3.Error{Code: sqlite3.ErrRange},
			want: ErrCodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestClassifySQLiteError_IgnoresOtherErrors(t *testing.T) {
	t.Parallel()

	for _, err := range []error{nil, errors.New("database is locked"), HandleNotFound("GetDocument", "document", "kaizen:ann:habits")} {
		if got := classifySQLiteError(err); got != ErrCodeUnknown {
			t.Errorf("classifySQLiteError(%v) = %v, want unknown", err, got)
		}
	}
}

func TestWithRetryContext_SQLiteBatchWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		driverErr sqlite3.Error
		failures  int
		wantCalls int
		wantErr   bool
		wantCode  ErrorCode
	}{
		{"busy clears on retry", sqlite3.Error{Code: sqlite3.ErrBusy}, 2, 3, false, ErrCodeUnknown},
		{"lock outlasts every attempt", sqlite3.Error{Code: sqlite3.ErrLocked}, 5, 3, true, ErrCodeBusy},
		{"constraint fails immediately", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, 5, 1, true, ErrCodeConstraint},
		{"full disk fails immediately", sqlite3.Error{Code: sqlite3.ErrFull}, 5, 1, true, ErrCodeDiskSpace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			err := WithRetryContext(context.Background(), fastConfig(), func() error {
				calls++
				if calls <= tt.failures {
					return asRepositoryFailure("PutMany", "kaizen:ann:tracking", tt.driverErr)
				}
				return nil
			}, "PutMany")

			if calls != tt.wantCalls {
				t.Errorf("attempts = %d, want %d", calls, tt.wantCalls)
			}
			if !tt.wantErr {
				if err != nil {
					t.Errorf("WithRetryContext() error = %v, want success", err)
				}
				return
			}
			if got := CodeOf(err); got != tt.wantCode {
				t.Errorf("CodeOf(err) = %v, want %v (err: %v)", got, tt.wantCode, err)
			}
			var driverErr sqlite3.Error
			if !errors.As(err, &driverErr) || driverErr.Code != tt.driverErr.Code {
				t.Errorf("driver error lost from %v", err)
			}
		})
	}
}
