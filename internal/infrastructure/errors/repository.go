package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrClosed is returned by stores used after Close
var ErrClosed = errors.New("store is closed")

// ClassifyError maps driver, badger and standard library errors to codes
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}
	if code := classifyBadgerError(err); code != ErrCodeUnknown {
		return code
	}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrClosed), errors.Is(err, sql.ErrConnDone):
		return ErrCodeClosed
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	case errors.As(err, &validationErrs):
		return ErrCodeValidation
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "unique constraint"):
		return ErrCodeDuplicate
	case strings.Contains(errStr, "constraint"):
		return ErrCodeConstraint
	case strings.Contains(errStr, "database is closed"):
		return ErrCodeClosed
	case strings.Contains(errStr, "database is locked"):
		return ErrCodeBusy
	case strings.Contains(errStr, "malformed"), strings.Contains(errStr, "corrupt"):
		return ErrCodeCorruption
	case strings.Contains(errStr, "no such table"), strings.Contains(errStr, "no such column"):
		return ErrCodeSchema
	case strings.Contains(errStr, "permission denied"), strings.Contains(errStr, "read-only"):
		return ErrCodePermission
	case strings.Contains(errStr, "disk full"), strings.Contains(errStr, "no space left"):
		return ErrCodeDiskSpace
	case strings.Contains(errStr, "timeout"):
		return ErrCodeTimeout
	default:
		return ErrCodeUnknown
	}
}

// WrapStoreError wraps err with its classification. Nil stays nil.
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	return NewRepositoryError(op, err, ClassifyError(err))
}

// WrapStoreErrorWithContext is WrapStoreError with extra context
func WrapStoreErrorWithContext(op string, err error, contextMap map[string]string) error {
	if err == nil {
		return nil
	}
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	return NewRepositoryErrorWithContext(op, err, ClassifyError(err), contextMap)
}

// HandleNotFound creates a standardized not found error
func HandleNotFound(op string, resource string, identifier string) error {
	contextMap := map[string]string{
		"resource":   resource,
		"identifier": identifier,
	}
	return NewRepositoryErrorWithContext(op, fmt.Errorf("%s %q not found", resource, identifier), ErrCodeNotFound, contextMap)
}

// HandleValidationError wraps a validation failure. Field-level validator
// errors are flattened into the context.
func HandleValidationError(op string, resource string, err error) error {
	contextMap := map[string]string{"resource": resource}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fmt.Sprintf("%s:%s", fe.Field(), fe.Tag()))
		}
		contextMap["fields"] = strings.Join(fields, ",")
	}
	if err == nil {
		err = errors.New("validation failed")
	}
	return NewRepositoryErrorWithContext(op, err, ErrCodeValidation, contextMap)
}

// HandleClosedError reports use of a closed store
func HandleClosedError(op string, backend string) error {
	return NewRepositoryErrorWithContext(op, ErrClosed, ErrCodeClosed, map[string]string{"backend": backend})
}

// HandleCorruptionError creates a standardized corruption error
func HandleCorruptionError(op string, resource string, details string) error {
	contextMap := map[string]string{
		"resource": resource,
		"details":  details,
	}
	return NewRepositoryErrorWithContext(op, errors.New("data corruption detected"), ErrCodeCorruption, contextMap)
}
