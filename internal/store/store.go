// ABOUTME: SQLite store for the console's outbound request log.
// ABOUTME: Handles database initialization, migrations, and connection management.

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/2389/reco/internal/logger"
)

// Migration version constants
const (
	MigrationV1 = 1 // request_logs table
	MigrationV2 = 2 // composite indexes for the logs page filters
)

// CurrentSchemaVersion is the target version for the database schema
const CurrentSchemaVersion = MigrationV2

type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// New opens (creating if needed) the database at dbPath and migrates it
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &Store{db: db, log: logger.Default().Named("store")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs all pending migrations
func (s *Store) migrate() error {
	if err := s.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := s.getCurrentMigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	s.log.Debugw("database schema", "version", currentVersion, "target", CurrentSchemaVersion)

	if currentVersion < MigrationV1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("migration v1 failed: %w", err)
		}
	}

	if currentVersion < MigrationV2 {
		if err := s.migrateV2(); err != nil {
			return fmt.Errorf("migration v2 failed: %w", err)
		}
	}

	return nil
}

func (s *Store) createMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			description TEXT
		)
	`)
	return err
}

func (s *Store) getCurrentMigrationVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *Store) recordMigration(version int, description string) error {
	_, err := s.db.Exec(`
		INSERT INTO schema_migrations (version, description)
		VALUES (?, ?)
	`, version, description)
	return err
}

// migrateV1 creates the request_logs table
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS request_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		resource TEXT DEFAULT '',
		action TEXT DEFAULT '',
		request_id TEXT DEFAULT '',
		method TEXT NOT NULL,
		path TEXT NOT NULL,
		status_code INTEGER,
		duration_ms INTEGER,
		error TEXT,
		request_body TEXT,
		response_body TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_request_logs_timestamp ON request_logs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_request_logs_path ON request_logs(path);
	CREATE INDEX IF NOT EXISTS idx_request_logs_status ON request_logs(status_code);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if err := s.recordMigration(MigrationV1, "Create request_logs table"); err != nil {
		return err
	}

	s.log.Infof("Applied migration v%d: Create request_logs table", MigrationV1)
	return nil
}

// migrateV2 adds indexes for filtering by resource and action
func (s *Store) migrateV2() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_request_logs_resource_timestamp ON request_logs(resource, timestamp DESC)",
		"CREATE INDEX IF NOT EXISTS idx_request_logs_resource_action_status ON request_logs(resource, action, status_code)",
		"CREATE INDEX IF NOT EXISTS idx_request_logs_request_id ON request_logs(request_id) WHERE request_id != ''",
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := s.recordMigration(MigrationV2, "Add resource and action indexes"); err != nil {
		return err
	}

	s.log.Infof("Applied migration v%d: Add resource and action indexes", MigrationV2)
	return nil
}
