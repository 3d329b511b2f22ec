package repository

import (
	"context"
	"time"
)

// Document is one persisted JSON collection
type Document struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// DocumentRepository persists keyed JSON documents
type DocumentRepository interface {
	// GetDocument returns ErrCodeNotFound when the key is absent
	GetDocument(ctx context.Context, key string) (*Document, error)
	PutDocument(ctx context.Context, key, value string) error
	// DeleteDocument is a no-op for absent keys
	DeleteDocument(ctx context.Context, key string) error

	// ListDocuments returns documents whose key starts with prefix, ordered by key
	ListDocuments(ctx context.Context, prefix string) ([]Document, error)
	// PutDocuments writes every document or none
	PutDocuments(ctx context.Context, docs map[string]string) error
	// DeletePrefix removes every document whose key starts with prefix
	DeletePrefix(ctx context.Context, prefix string) (int64, error)

	WithTransaction(ctx context.Context, fn func(repo DocumentRepository) error) error
}
