package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	storeerrors "kaizen/internal/infrastructure/errors"
	"kaizen/internal/infrastructure/logging"
)

// BadgerConfig configures the BadgerDB backend
type BadgerConfig struct {
	// Path is the database directory; ignored when InMemory is set
	Path       string `json:"path" yaml:"path" validate:"required_unless=InMemory true"`
	InMemory   bool   `json:"inMemory" yaml:"inMemory"`
	SyncWrites bool   `json:"syncWrites" yaml:"syncWrites"`

	// GCInterval of 0 disables value log garbage collection
	GCInterval     time.Duration `json:"gcInterval" yaml:"gcInterval" validate:"gte=0"`
	GCDiscardRatio float64       `json:"gcDiscardRatio" yaml:"gcDiscardRatio" validate:"gte=0,lte=1"`
}

// DefaultBadgerConfig returns durable production settings
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		Path:           "kaizen.badger",
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryBadgerConfig returns settings for tests
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// BadgerStore keeps documents in BadgerDB
type BadgerStore struct {
	db          *badger.DB
	logger      logging.Logger
	retryConfig *storeerrors.RetryConfig
	closed      atomic.Bool

	gcStop chan struct{}
	gcDone chan struct{}
	once   sync.Once
}

var _ Store = (*BadgerStore)(nil)

// OpenBadger opens BadgerDB and starts value log GC for persistent
// databases when configured
func OpenBadger(cfg BadgerConfig, logger logging.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, storeerrors.HandleValidationError("OpenBadger", "badger", errors.New("path is required for persistent database"))
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(logging.NewBadgerLoggerAdapter(logger))

	db, err := badger.Open(opts)
	if err != nil {
		return nil, storeerrors.WrapStoreErrorWithContext("OpenBadger", err, map[string]string{"path": cfg.Path})
	}

	s := &BadgerStore{
		db:          db,
		logger:      logger,
		retryConfig: storeerrors.DefaultRetryConfig(),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	logger.Info("Opened badger store", "path", cfg.Path, "in_memory", cfg.InMemory)
	return s, nil
}

func (s *BadgerStore) startGC(interval time.Duration, ratio float64) {
	s.gcStop = make(chan struct{})
	s.gcDone = make(chan struct{})
	go func() {
		defer close(s.gcDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				s.runGC(ratio)
			}
		}
	}()
}

func (s *BadgerStore) runGC(ratio float64) {
	err := s.db.RunValueLogGC(ratio)
	switch {
	case err == nil:
		s.logger.Debug("Badger value log GC completed")
	case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrRejected):
	default:
		s.logger.Warn("Badger value log GC failed", "error", err)
	}
}

func (s *BadgerStore) checkOpen(op string) error {
	if s.closed.Load() {
		return storeerrors.HandleClosedError(op, BackendBadger)
	}
	return nil
}

func (s *BadgerStore) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	return storeerrors.WithRetryContext(ctx, s.retryConfig, func() error {
		return storeerrors.WrapStoreError(op, s.db.Update(fn))
	}, op)
}

func (s *BadgerStore) Get(_ context.Context, key string) (string, bool, error) {
	if err := s.checkOpen("Get"); err != nil {
		return "", false, err
	}
	if key == "" {
		return "", false, emptyKeyError("Get")
	}

	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value = string(raw)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeerrors.WrapStoreErrorWithContext("Get", err, map[string]string{"key": key})
	}
	return value, true, nil
}

func (s *BadgerStore) Put(ctx context.Context, key, value string) error {
	if err := s.checkOpen("Put"); err != nil {
		return err
	}
	if key == "" {
		return emptyKeyError("Put")
	}
	return s.update(ctx, "Put", func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// PutMany writes all documents in one transaction, in key order
func (s *BadgerStore) PutMany(ctx context.Context, docs map[string]string) error {
	if err := s.checkOpen("PutMany"); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(docs))
	for key := range docs {
		if key == "" {
			return emptyKeyError("PutMany")
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return s.update(ctx, "PutMany", func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Set([]byte(key), []byte(docs[key])); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := s.checkOpen("Delete"); err != nil {
		return err
	}
	if key == "" {
		return emptyKeyError("Delete")
	}
	return s.update(ctx, "Delete", func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *BadgerStore) List(_ context.Context, prefix string) (map[string]string, error) {
	if err := s.checkOpen("List"); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[string(item.KeyCopy(nil))] = string(raw)
		}
		return nil
	})
	if err != nil {
		return nil, storeerrors.WrapStoreErrorWithContext("List", err, map[string]string{"prefix": prefix})
	}
	return out, nil
}

// Close stops GC and closes the database. Closing twice is a no-op.
func (s *BadgerStore) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		if s.gcStop != nil {
			close(s.gcStop)
			<-s.gcDone
		}
		if closeErr := s.db.Close(); closeErr != nil {
			err = storeerrors.WrapStoreError("Close", closeErr)
		}
	})
	return err
}
