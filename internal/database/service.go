package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	dberrors "kaizen/internal/infrastructure/errors"
	"kaizen/internal/infrastructure/logging"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteService implements Service for SQLite.
//
// Lifecycle:
// 1. Create the service with NewSQLiteService()
// 2. Connect with Connect()
// 3. Optionally run migrations with Migrate()
// 4. Hand DB() to repositories
// 5. Close with Close()
type SQLiteService struct {
	db              *sql.DB
	config          *Config
	migrationRunner MigrationManager
	logger          logging.Logger
}

var _ Service = (*SQLiteService)(nil)

// NewSQLiteService creates a new SQLite database service
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteService{
		logger: logger,
	}
}

func notConnected(op string) error {
	return dberrors.HandleClosedError(op, "sqlite")
}

// Connect opens the database, configures the pool and pings it. An
// existing connection is closed first.
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if config == nil {
		return dberrors.HandleValidationError("Connect", "config", fmt.Errorf("config is nil"))
	}
	if err := config.Validate(); err != nil {
		return dberrors.HandleValidationError("Connect", "config", err)
	}
	s.config = config

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err)
		}
		s.db = nil
		s.migrationRunner = nil
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return dberrors.NewRepositoryErrorWithContext("Connect", err, dberrors.ErrCodeConnection,
			map[string]string{"phase": "open", "path": config.Path})
	}

	s.configureConnectionPool(db, config)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return dberrors.NewRepositoryErrorWithContext("Connect", err, dberrors.ErrCodeConnection,
			map[string]string{"phase": "ping", "path": config.Path})
	}

	s.db = db
	s.migrationRunner = NewMigrationRunner(db, s.logger)

	s.logger.Info("Connected to SQLite database", "path", config.Path)
	return nil
}

// Close closes the database connection. Closing twice is a no-op.
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return dberrors.WrapStoreErrorWithContext("Close", err, map[string]string{"backend": "sqlite"})
	}

	s.db = nil
	s.migrationRunner = nil

	s.logger.Debug("Closed SQLite database connection")
	return nil
}

// Migrate validates and applies the embedded migrations
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil || s.migrationRunner == nil {
		return notConnected("Migrate")
	}

	if err := s.migrationRunner.ValidateMigrations(); err != nil {
		return dberrors.NewRepositoryErrorWithContext("Migrate", err, dberrors.ErrCodeSchema,
			map[string]string{"phase": "validation"})
	}

	if err := s.migrationRunner.RunMigrations(ctx); err != nil {
		return dberrors.WrapStoreErrorWithContext("Migrate", err, map[string]string{
			"phase": "execution",
		})
	}
	return nil
}

// Health pings the database and runs a trivial query
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return notConnected("Health")
	}

	if err := s.db.PingContext(ctx); err != nil {
		return dberrors.WrapStoreErrorWithContext("Health", err, map[string]string{
			"phase": "ping",
		})
	}

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return dberrors.WrapStoreErrorWithContext("Health", err, map[string]string{
			"phase": "query",
		})
	}
	if result != 1 {
		return dberrors.NewRepositoryError("Health", fmt.Errorf("expected result 1, got %d", result), dberrors.ErrCodeInternal)
	}
	return nil
}

// DB returns the underlying connection for repositories
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// Config returns the configuration of the current connection
func (s *SQLiteService) Config() *Config {
	return s.config
}

// GetMigrationVersion returns the applied schema version
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil || s.migrationRunner == nil {
		return 0, notConnected("GetMigrationVersion")
	}

	version, err := s.migrationRunner.GetCurrentVersion(ctx)
	if err != nil {
		return 0, dberrors.WrapStoreError("GetMigrationVersion", err)
	}
	return version, nil
}

// GetStats returns connection pool statistics
func (s *SQLiteService) GetStats() sql.DBStats {
	if s.db == nil {
		return sql.DBStats{}
	}
	return s.db.Stats()
}

// Optimize runs ANALYZE and VACUUM. The WAL checkpoint and PRAGMA optimize
// steps are best-effort.
func (s *SQLiteService) Optimize(ctx context.Context) error {
	if s.db == nil {
		return notConnected("Optimize")
	}

	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return dberrors.WrapStoreErrorWithContext("Optimize", err, map[string]string{
			"phase": "analyze",
		})
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("wal_checkpoint failed", "error", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return dberrors.WrapStoreErrorWithContext("Optimize", err, map[string]string{
			"phase": "vacuum",
		})
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		s.logger.Warn("PRAGMA optimize failed", "error", err)
	}

	s.logger.Info("Database optimization completed")
	return nil
}

// configureConnectionPool sizes the pool for SQLite. Without WAL a single
// connection avoids lock contention; with WAL at most 4 connections are
// opened.
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	switch {
	case config.ForceSingleConnection:
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		s.logger.Debug("Configured SQLite for single connection mode (forced by config)")

	case !strings.EqualFold(config.JournalMode, "WAL"):
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		s.logger.Debug("Configured SQLite for single connection mode (non-WAL journal mode)",
			"journalMode", config.JournalMode)

	default:
		maxConns := config.MaxConnections
		if maxConns <= 0 {
			maxConns = 4
		}
		maxConns = min(maxConns, 4)

		idleConns := min(config.MaxIdleConns, maxConns)
		if idleConns <= 0 {
			idleConns = 1
		}

		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(idleConns)
		s.logger.Debug("Configured SQLite for limited connection pool (WAL mode)",
			"maxOpenConns", maxConns, "maxIdleConns", idleConns)
	}

	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
}
