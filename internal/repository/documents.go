package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	repoerrors "kaizen/internal/infrastructure/errors"
	"kaizen/internal/infrastructure/logging"
)

const (
	selectDocumentSQL = `SELECT key, value, updated_at FROM documents WHERE key = ?`
	upsertDocumentSQL = `INSERT INTO documents (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	deleteDocumentSQL = `DELETE FROM documents WHERE key = ?`
	listDocumentsSQL  = `SELECT key, value, updated_at FROM documents WHERE key LIKE ? ESCAPE '\' ORDER BY key`
	deletePrefixSQL   = `DELETE FROM documents WHERE key LIKE ? ESCAPE '\'`
)

func validateKey(op, key string) error {
	if key == "" {
		return repoerrors.HandleValidationError(op, "document", errors.New("document key is empty"))
	}
	return nil
}

// GetDocument reads one document
func (r *SQLiteRepository) GetDocument(ctx context.Context, key string) (*Document, error) {
	if err := validateKey("GetDocument", key); err != nil {
		return nil, err
	}
	start := time.Now()

	var doc Document
	var found bool
	err := r.withRetry(ctx, "GetDocument", map[string]string{"key": key}, func() error {
		err := r.conn.QueryRowContext(ctx, selectDocumentSQL, key).Scan(&doc.Key, &doc.Value, &doc.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, repoerrors.HandleNotFound("GetDocument", "document", key)
	}

	logging.LogOperation(r.logger, "GetDocument", time.Since(start), map[string]any{
		"key":   key,
		"bytes": len(doc.Value),
	})
	return &doc, nil
}

// PutDocument inserts or replaces one document
func (r *SQLiteRepository) PutDocument(ctx context.Context, key, value string) error {
	if err := validateKey("PutDocument", key); err != nil {
		return err
	}
	start := time.Now()

	err := r.withRetry(ctx, "PutDocument", map[string]string{"key": key}, func() error {
		_, err := r.conn.ExecContext(ctx, upsertDocumentSQL, key, value)
		return err
	})
	if err == nil {
		logging.LogOperation(r.logger, "PutDocument", time.Since(start), map[string]any{
			"key":   key,
			"bytes": len(value),
		})
	}
	return err
}

// DeleteDocument removes one document
func (r *SQLiteRepository) DeleteDocument(ctx context.Context, key string) error {
	if err := validateKey("DeleteDocument", key); err != nil {
		return err
	}
	start := time.Now()

	err := r.withRetry(ctx, "DeleteDocument", map[string]string{"key": key}, func() error {
		_, err := r.conn.ExecContext(ctx, deleteDocumentSQL, key)
		return err
	})
	if err == nil {
		logging.LogOperation(r.logger, "DeleteDocument", time.Since(start), map[string]any{"key": key})
	}
	return err
}

// ListDocuments returns every document under prefix. An empty prefix
// lists the whole table.
func (r *SQLiteRepository) ListDocuments(ctx context.Context, prefix string) ([]Document, error) {
	start := time.Now()

	var docs []Document
	err := r.withRetry(ctx, "ListDocuments", map[string]string{"prefix": prefix}, func() error {
		docs = docs[:0]
		rows, err := r.conn.QueryContext(ctx, listDocumentsSQL, prefixPattern(prefix))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var doc Document
			if err := rows.Scan(&doc.Key, &doc.Value, &doc.UpdatedAt); err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	logging.LogOperation(r.logger, "ListDocuments", time.Since(start), map[string]any{
		"prefix": prefix,
		"count":  len(docs),
	})
	return docs, nil
}

// PutDocuments writes all documents in one transaction, in key order
func (r *SQLiteRepository) PutDocuments(ctx context.Context, docs map[string]string) error {
	if len(docs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(docs))
	for key := range docs {
		if err := validateKey("PutDocuments", key); err != nil {
			return err
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return r.WithTransaction(ctx, func(repo DocumentRepository) error {
		for _, key := range keys {
			if err := repo.PutDocument(ctx, key, docs[key]); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeletePrefix removes every document under prefix and reports how many
// were removed. An empty prefix is rejected.
func (r *SQLiteRepository) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	if prefix == "" {
		return 0, repoerrors.HandleValidationError("DeletePrefix", "document", errors.New("prefix is empty"))
	}

	var removed int64
	err := r.withRetry(ctx, "DeletePrefix", map[string]string{"prefix": prefix}, func() error {
		res, err := r.conn.ExecContext(ctx, deletePrefixSQL, prefixPattern(prefix))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	r.logger.Debug("Deleted documents by prefix", "prefix", prefix, "count", removed)
	return removed, nil
}
