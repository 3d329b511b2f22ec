package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaizen/internal/database"
	storeerrors "kaizen/internal/infrastructure/errors"
	"kaizen/internal/infrastructure/logging"
	"kaizen/internal/reconcile"
)

type backendFactory func(t *testing.T) Store

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		BackendMemory: func(t *testing.T) Store {
			return NewMemoryStore()
		},
		BackendSQLite: func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), database.TestConfig(), logging.NopLogger{})
			require.NoError(t, err)
			return s
		},
		BackendBadger: func(t *testing.T) Store {
			s, err := OpenBadger(InMemoryBadgerConfig(), logging.NopLogger{})
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	t.Parallel()
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			_, ok, err := s.Get(ctx, "kaizen:default:habits")
			require.NoError(t, err)
			assert.False(t, ok, "fresh store should be empty")

			require.NoError(t, s.Put(ctx, "kaizen:default:habits", `[{"id":"a"}]`))
			value, ok, err := s.Get(ctx, "kaizen:default:habits")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"id":"a"}]`, value)

			require.NoError(t, s.Put(ctx, "kaizen:default:habits", `[]`))
			value, _, err = s.Get(ctx, "kaizen:default:habits")
			require.NoError(t, err)
			assert.Equal(t, `[]`, value)

			require.NoError(t, s.PutMany(ctx, map[string]string{
				"kaizen:default:tracking": `{}`,
				"kaizen:other:habits":     `[]`,
			}))
			listed, err := s.List(ctx, UserPrefix("default"))
			require.NoError(t, err)
			assert.Equal(t, map[string]string{
				"kaizen:default:habits":   `[]`,
				"kaizen:default:tracking": `{}`,
			}, listed)

			require.NoError(t, s.Delete(ctx, "kaizen:default:habits"))
			_, ok, err = s.Get(ctx, "kaizen:default:habits")
			require.NoError(t, err)
			assert.False(t, ok)
			require.NoError(t, s.Delete(ctx, "kaizen:default:habits"), "deleting an absent key succeeds")

			_, _, err = s.Get(ctx, "")
			assert.True(t, storeerrors.IsValidation(err), "empty key: %v", err)
			assert.True(t, storeerrors.IsValidation(s.Put(ctx, "", "x")))
			assert.True(t, storeerrors.IsValidation(s.PutMany(ctx, map[string]string{"": "x"})))
		})
	}
}

func TestStoreContract_Closed(t *testing.T) {
	t.Parallel()
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory(t)
			require.NoError(t, s.Close())
			require.NoError(t, s.Close(), "second Close is a no-op")

			ctx := context.Background()
			_, _, err := s.Get(ctx, "k")
			assert.True(t, storeerrors.IsClosed(err), "Get after Close: %v", err)
			assert.True(t, storeerrors.IsClosed(s.Put(ctx, "k", "v")), "Put after Close")
		})
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "kaizen:ann:habits", Key("ann", reconcile.KeyHabits))
	assert.Equal(t, "kaizen:default:settings", Key("", reconcile.KeySettings))

	tests := []struct {
		key        string
		user       string
		collection string
		ok         bool
	}{
		{"kaizen:ann:habits", "ann", "habits", true},
		{"kaizen:team:ann:tracking", "team:ann", "tracking", true},
		{"other:ann:habits", "", "", false},
		{"kaizen:ann:", "", "", false},
		{"kaizen::habits", "", "", false},
		{"kaizen:habits", "", "", false},
	}
	for _, tt := range tests {
		user, collection, ok := ParseKey(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.user, user, tt.key)
		assert.Equal(t, tt.collection, collection, tt.key)
	}
}

func TestLoadSaveDocuments(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	docs := reconcile.Documents{
		reconcile.KeyHabits:   `[]`,
		reconcile.KeySettings: `{"mode":"gamified"}`,
	}
	require.NoError(t, SaveDocuments(ctx, s, "ann", docs))
	require.NoError(t, SaveDocuments(ctx, s, "bob", reconcile.Documents{reconcile.KeyHabits: `[{"id":"x"}]`}))

	loaded, err := LoadDocuments(ctx, s, "ann")
	require.NoError(t, err)
	assert.Equal(t, docs, loaded, "absent collections are left out")

	users, err := Users(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"ann", "bob"}, users)

	require.NoError(t, SaveDocuments(ctx, s, "ann", nil))
}

func TestLoadDocuments_PropagatesErrors(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	require.NoError(t, s.Close())

	_, err := LoadDocuments(context.Background(), s, "ann")
	require.Error(t, err)
	assert.True(t, storeerrors.IsClosed(err))
}

func TestBadgerStore_Persistence(t *testing.T) {
	t.Parallel()
	cfg := DefaultBadgerConfig()
	cfg.Path = filepath.Join(t.TempDir(), "badger")
	cfg.SyncWrites = false
	cfg.GCInterval = 0
	ctx := context.Background()

	s, err := OpenBadger(cfg, logging.NopLogger{})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "kaizen:ann:habits", `[]`))
	require.NoError(t, s.Close())

	reopened, err := OpenBadger(cfg, logging.NopLogger{})
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "kaizen:ann:habits")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, value)
}

func TestBadgerStore_GCRunnerStops(t *testing.T) {
	t.Parallel()
	cfg := DefaultBadgerConfig()
	cfg.Path = filepath.Join(t.TempDir(), "badger")
	cfg.SyncWrites = false

	s, err := OpenBadger(cfg, logging.NopLogger{})
	require.NoError(t, err)
	require.NotNil(t, s.gcStop)
	require.NoError(t, s.Close())

	select {
	case <-s.gcDone:
	default:
		t.Fatal("GC goroutine should have exited")
	}
}

func TestOpenBadger_RequiresPath(t *testing.T) {
	t.Parallel()
	_, err := OpenBadger(BadgerConfig{}, nil)
	assert.True(t, storeerrors.IsValidation(err))
}

func TestSQLiteStore_SchemaAndHealth(t *testing.T) {
	t.Parallel()
	config := database.DefaultConfig()
	config.Path = filepath.Join(t.TempDir(), "kaizen.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, config, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Health(ctx))
	version, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	require.NoError(t, s.Optimize(ctx))
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Config{Backend: BackendMemory}.Validate())
	assert.Error(t, Config{Backend: "redis"}.Validate())
	assert.Error(t, Config{Backend: BackendSQLite}.Validate(), "missing sqlite section")
	assert.Error(t, Config{Backend: BackendBadger}.Validate(), "badger without path")
	assert.NoError(t, Config{Backend: BackendBadger, Badger: InMemoryBadgerConfig()}.Validate())

	bad := InMemoryBadgerConfig()
	bad.GCDiscardRatio = 2
	assert.Error(t, Config{Backend: BackendBadger, Badger: bad}.Validate())
}

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := Open(ctx, Config{Backend: BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Config{Backend: BackendSQLite, SQLite: database.TestConfig()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Config{Backend: BackendBadger, Badger: InMemoryBadgerConfig()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Backend: "nope"}, nil)
	assert.Error(t, err)
}
