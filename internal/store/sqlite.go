package store

import (
	"context"
	"fmt"

	"kaizen/internal/database"
	storeerrors "kaizen/internal/infrastructure/errors"
	"kaizen/internal/infrastructure/logging"
	"kaizen/internal/repository"
)

// SQLiteStore keeps documents in the SQLite documents table
type SQLiteStore struct {
	service *database.SQLiteService
	repo    repository.DocumentRepository
	logger  logging.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite connects to the database and applies migrations when the
// configuration asks for it
func OpenSQLite(ctx context.Context, config *database.Config, logger logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if config == nil {
		config = database.DefaultConfig()
	}

	service := database.NewSQLiteService(logger)
	if err := service.Connect(ctx, config); err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	if config.AutoMigrate {
		if err := service.Migrate(ctx); err != nil {
			service.Close()
			return nil, fmt.Errorf("migrate sqlite store: %w", err)
		}
	}

	return &SQLiteStore{
		service: service,
		repo:    repository.NewSQLiteRepository(service, logger),
		logger:  logger,
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	doc, err := s.repo.GetDocument(ctx, key)
	if storeerrors.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return doc.Value, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	return s.repo.PutDocument(ctx, key, value)
}

func (s *SQLiteStore) PutMany(ctx context.Context, docs map[string]string) error {
	return s.repo.PutDocuments(ctx, docs)
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.repo.DeleteDocument(ctx, key)
}

func (s *SQLiteStore) List(ctx context.Context, prefix string) (map[string]string, error) {
	docs, err := s.repo.ListDocuments(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(docs))
	for _, doc := range docs {
		out[doc.Key] = doc.Value
	}
	return out, nil
}

// Health checks the underlying connection
func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.service.Health(ctx)
}

// Optimize compacts the database file
func (s *SQLiteStore) Optimize(ctx context.Context) error {
	return s.service.Optimize(ctx)
}

// SchemaVersion returns the applied migration version
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int64, error) {
	return s.service.GetMigrationVersion(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.service.Close()
}
