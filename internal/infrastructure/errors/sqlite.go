package errors

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// sqliteExtendedCodes take precedence over the primary result code
var sqliteExtendedCodes = map[sqlite3.ErrNoExtended]ErrorCode{
	sqlite3.ErrConstraintUnique:     ErrCodeDuplicate,
	sqlite3.ErrConstraintPrimaryKey: ErrCodeDuplicate,
	sqlite3.ErrConstraintForeignKey: ErrCodeConstraint,
	sqlite3.ErrConstraintCheck:      ErrCodeConstraint,
	sqlite3.ErrConstraintNotNull:    ErrCodeConstraint,
	sqlite3.ErrConstraintTrigger:    ErrCodeConstraint,
	sqlite3.ErrConstraintRowID:      ErrCodeConstraint,
}

var sqlitePrimaryCodes = map[sqlite3.ErrNo]ErrorCode{
	sqlite3.ErrCorrupt:   ErrCodeCorruption,
	sqlite3.ErrNotADB:    ErrCodeCorruption,
	sqlite3.ErrPerm:      ErrCodePermission,
	sqlite3.ErrAuth:      ErrCodePermission,
	sqlite3.ErrReadonly:  ErrCodePermission,
	sqlite3.ErrBusy:      ErrCodeBusy,
	sqlite3.ErrLocked:    ErrCodeBusy,
	sqlite3.ErrCantOpen:  ErrCodeConnection,
	sqlite3.ErrIoErr:     ErrCodeConnection,
	sqlite3.ErrFull:      ErrCodeDiskSpace,
	sqlite3.ErrInterrupt: ErrCodeTimeout,
	sqlite3.ErrMisuse:    ErrCodeInternal,
	sqlite3.ErrSchema:    ErrCodeSchema,
}

// classifySQLiteError classifies a sqlite3.Error by its extended code, then
// its primary code. Non-sqlite errors yield ErrCodeUnknown.
func classifySQLiteError(err error) ErrorCode {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return ErrCodeUnknown
	}

	if code, ok := sqliteExtendedCodes[sqliteErr.ExtendedCode]; ok {
		return code
	}

	if sqliteErr.Code == sqlite3.ErrConstraint {
		if strings.Contains(strings.ToLower(sqliteErr.Error()), "unique") {
			return ErrCodeDuplicate
		}
		return ErrCodeConstraint
	}

	if code, ok := sqlitePrimaryCodes[sqliteErr.Code]; ok {
		return code
	}
	return ErrCodeUnknown
}
