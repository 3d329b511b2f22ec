package repository

import (
	"context"
	"database/sql"
	"strings"

	"kaizen/internal/database"
	repoerrors "kaizen/internal/infrastructure/errors"
	"kaizen/internal/infrastructure/logging"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository implements DocumentRepository over the documents table
type SQLiteRepository struct {
	db          *sql.DB
	conn        dbtx
	inTx        bool
	retryConfig *repoerrors.RetryConfig
	logger      logging.Logger
}

var _ DocumentRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a repository on a connected database service
func NewSQLiteRepository(dbService database.Service, logger logging.Logger) *SQLiteRepository {
	return NewSQLiteRepositoryWithConfig(dbService, nil, logger)
}

// NewSQLiteRepositoryWithConfig creates a repository with a custom retry
// policy. Nil arguments fall back to defaults.
func NewSQLiteRepositoryWithConfig(dbService database.Service, retryConfig *repoerrors.RetryConfig, logger logging.Logger) *SQLiteRepository {
	if retryConfig == nil {
		retryConfig = repoerrors.DefaultRetryConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	db := dbService.DB()
	return &SQLiteRepository{
		db:          db,
		conn:        db,
		retryConfig: retryConfig,
		logger:      logger,
	}
}

// SetRetryConfig updates the retry configuration
func (r *SQLiteRepository) SetRetryConfig(config *repoerrors.RetryConfig) {
	if config != nil {
		r.retryConfig = config
	}
}

// GetRetryConfig returns the current retry configuration
func (r *SQLiteRepository) GetRetryConfig() *repoerrors.RetryConfig {
	return r.retryConfig
}

// SetLogger updates the logger
func (r *SQLiteRepository) SetLogger(logger logging.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// HealthCheck pings the database and confirms the documents table exists
func (r *SQLiteRepository) HealthCheck(ctx context.Context) error {
	if r.db == nil {
		return repoerrors.HandleClosedError("HealthCheck", "sqlite")
	}

	return r.withRetry(ctx, "HealthCheck", nil, func() error {
		if err := r.db.PingContext(ctx); err != nil {
			return err
		}
		var count int
		return r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='documents'").Scan(&count)
	})
}

// withRetry runs op under the retry policy. Failures are classified;
// retryable ones are logged at debug level and the rest through LogError.
// Inside a transaction the operation runs once, since the enclosing
// transaction is the retry unit.
func (r *SQLiteRepository) withRetry(ctx context.Context, opName string, contextMap map[string]string, op func() error) error {
	if r.conn == nil {
		return repoerrors.HandleClosedError(opName, "sqlite")
	}

	attempt := func() error {
		err := op()
		if err == nil {
			return nil
		}
		repoErr := repoerrors.NewRepositoryErrorWithContext(opName, err, r.classifyError(err), contextMap)
		if repoErr.IsRetryable() {
			r.logger.Debug("Retryable error in "+opName, "error", err)
		} else {
			logging.LogError(r.logger, repoErr, opName, nil)
		}
		return repoErr
	}

	if r.inTx {
		return attempt()
	}
	return repoerrors.WithRetryContext(ctx, r.retryConfig, attempt, opName)
}

func (r *SQLiteRepository) classifyError(err error) repoerrors.ErrorCode {
	return repoerrors.ClassifyError(err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// prefixPattern turns a literal key prefix into a LIKE pattern using '\'
// as the escape character
func prefixPattern(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
