package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies store and tracker failures
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeNotFound
	ErrCodeDuplicate
	ErrCodeConstraint
	ErrCodeConnection
	ErrCodeTransaction
	ErrCodeTimeout
	ErrCodeValidation
	ErrCodePermission
	ErrCodeDiskSpace
	ErrCodeCorruption
	ErrCodeInternal
	ErrCodeBusy
	ErrCodeSchema
	ErrCodeClosed
)

var codeNames = map[ErrorCode]string{
	ErrCodeNotFound:    "NOT_FOUND",
	ErrCodeDuplicate:   "DUPLICATE",
	ErrCodeConstraint:  "CONSTRAINT",
	ErrCodeConnection:  "CONNECTION",
	ErrCodeTransaction: "TRANSACTION",
	ErrCodeTimeout:     "TIMEOUT",
	ErrCodeValidation:  "VALIDATION",
	ErrCodePermission:  "PERMISSION",
	ErrCodeDiskSpace:   "DISK_SPACE",
	ErrCodeCorruption:  "CORRUPTION",
	ErrCodeInternal:    "INTERNAL",
	ErrCodeBusy:        "BUSY",
	ErrCodeSchema:      "SCHEMA",
	ErrCodeClosed:      "CLOSED",
}

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	if name, ok := codeNames[e]; ok {
		return name
	}
	return "UNKNOWN"
}

// RepositoryError carries the operation, classification and retry hint of a
// persistence or tracker failure
type RepositoryError struct {
	Op        string            // operation name
	Err       error             // underlying error
	Code      ErrorCode         // error classification
	Retryable bool              // whether the error is retryable
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *RepositoryError) Error() string {
	if e == nil {
		return "repository error"
	}

	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Code != ErrCodeUnknown {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code.String()))
	}
	if e.Retryable {
		parts = append(parts, "retryable=true")
	}

	// Sorted for deterministic output
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
	}

	suffix := ""
	if len(parts) > 0 {
		suffix = fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}

	if e.Err != nil {
		return e.Err.Error() + suffix
	}
	return "repository error" + suffix
}

func (e *RepositoryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another RepositoryError by code, or the wrapped error
func (e *RepositoryError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*RepositoryError); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable
func (e *RepositoryError) IsRetryable() bool {
	if e == nil {
		return false
	}
	return e.Retryable
}

// GetCode returns the code name for structured logging
func (e *RepositoryError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

// GetContext returns the error context, never nil
func (e *RepositoryError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns when the error was created
func (e *RepositoryError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// WithContext adds a context entry by mutating the receiver. Do not call it
// after the error has been shared across goroutines.
func (e *RepositoryError) WithContext(key, value string) *RepositoryError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// NewRepositoryError creates a classified error
func NewRepositoryError(op string, err error, code ErrorCode) *RepositoryError {
	return &RepositoryError{
		Op:        op,
		Err:       err,
		Code:      code,
		Retryable: isRetryableError(code, err),
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewRepositoryErrorWithContext creates a classified error with a copy of
// the given context
func NewRepositoryErrorWithContext(op string, err error, code ErrorCode, context map[string]string) *RepositoryError {
	repoErr := NewRepositoryError(op, err, code)
	for k, v := range context {
		repoErr.Context[k] = v
	}
	return repoErr
}

// isRetryableError decides the retry hint from the code. Unknown errors
// fall back to their message.
func isRetryableError(code ErrorCode, err error) bool {
	switch code {
	case ErrCodeConnection, ErrCodeTimeout, ErrCodeTransaction, ErrCodeBusy:
		return true
	case ErrCodeUnknown:
		if err == nil {
			return false
		}
		errStr := strings.ToLower(err.Error())
		return strings.Contains(errStr, "temporary") ||
			strings.Contains(errStr, "busy") ||
			strings.Contains(errStr, "locked")
	default:
		// Disk space, corruption and closed stores need outside intervention
		return false
	}
}

// HasCode reports whether err wraps a RepositoryError with the given code
func HasCode(err error, code ErrorCode) bool {
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.Code == code
	}
	return false
}

// CodeOf returns the code of the wrapped RepositoryError, or ErrCodeUnknown
func CodeOf(err error) ErrorCode {
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.Code
	}
	return ErrCodeUnknown
}

// IsNotFound checks if the error is a "not found" error
func IsNotFound(err error) bool { return HasCode(err, ErrCodeNotFound) }

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool { return HasCode(err, ErrCodeValidation) }

// IsCorruption checks if the error is a corruption error
func IsCorruption(err error) bool { return HasCode(err, ErrCodeCorruption) }

// IsClosed checks if the store was already closed
func IsClosed(err error) bool { return HasCode(err, ErrCodeClosed) }

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.Retryable
	}
	return false
}
