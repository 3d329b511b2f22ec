package errors

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// classifyBadgerError maps BadgerDB sentinel errors to codes. It returns
// ErrCodeUnknown for anything that is not a badger error.
func classifyBadgerError(err error) ErrorCode {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrCodeNotFound
	case errors.Is(err, badger.ErrConflict):
		return ErrCodeTransaction
	case errors.Is(err, badger.ErrDBClosed):
		return ErrCodeClosed
	case errors.Is(err, badger.ErrBlockedWrites):
		return ErrCodeBusy
	case errors.Is(err, badger.ErrTxnTooBig):
		return ErrCodeInternal
	case errors.Is(err, badger.ErrEmptyKey), errors.Is(err, badger.ErrInvalidKey):
		return ErrCodeValidation
	case errors.Is(err, badger.ErrReadOnlyTxn):
		return ErrCodePermission
	case errors.Is(err, badger.ErrTruncateNeeded):
		return ErrCodeCorruption
	default:
		return ErrCodeUnknown
	}
}
