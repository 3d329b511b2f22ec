package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repoerrors "kaizen/internal/infrastructure/errors"
	"kaizen/internal/infrastructure/logging"
)

// WithTransaction runs fn against a repository bound to one transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
// The whole transaction is retried on retryable failures. Nested calls
// join the enclosing transaction.
func (r *SQLiteRepository) WithTransaction(ctx context.Context, fn func(repo DocumentRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	if r.db == nil {
		return repoerrors.HandleClosedError("WithTransaction", "sqlite")
	}
	start := time.Now()

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			repoErr := repoerrors.NewRepositoryError("WithTransaction.Begin", err, r.classifyError(err))
			if repoErr.IsRetryable() {
				r.logger.Debug("Retryable error beginning transaction", "error", err)
			} else {
				logging.LogError(r.logger, repoErr, "WithTransaction.Begin", nil)
			}
			return repoErr
		}

		var originalErr error
		committed := false
		defer func() {
			if committed {
				return
			}
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				r.logger.Debug("Failed to rollback transaction",
					"rollback_error", rollbackErr,
					"original_error", originalErr)
			}
		}()

		txRepo := &SQLiteRepository{
			db:          r.db,
			conn:        tx,
			inTx:        true,
			retryConfig: r.retryConfig,
			logger:      r.logger,
		}

		if err := fn(txRepo); err != nil {
			originalErr = err
			r.logger.Debug("Transaction function failed", "error", err)
			return err
		}

		if err := tx.Commit(); err != nil {
			originalErr = err
			repoErr := repoerrors.NewRepositoryError("WithTransaction.Commit", err, r.classifyError(err))
			if repoErr.IsRetryable() {
				r.logger.Debug("Retryable error committing transaction", "error", err)
			} else {
				logging.LogError(r.logger, repoErr, "WithTransaction.Commit", nil)
			}
			return repoErr
		}
		committed = true
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "WithTransaction", time.Since(start), nil)
	}
	return err
}
