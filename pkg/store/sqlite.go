package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"viewstate/pkg/logx"
)

// CurrentSchemaVersion defines the current schema version for migration
// support.
const CurrentSchemaVersion = 1

// Session status constants.
const (
	SessionStatusActive   = "active"
	SessionStatusShutdown = "shutdown"
	SessionStatusCrashed  = "crashed"
)

// Session records one process run against the store. Sessions that never
// reach shutdown are marked crashed by the next open.
type Session struct {
	SessionID string     `json:"session_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    string     `json:"status"`
}

// SQLiteStore is a Store backed by a SQLite database. It is the durable
// backend used by the reference CLI host; editor hosts usually supply
// their own Store implementation instead.
type SQLiteStore struct {
	db        *sql.DB
	sessionID string
	logger    *logx.Logger
}

// OpenSQLite opens (creating if necessary) the database at dbPath,
// migrates the schema, and begins a new session.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{
		db:        db,
		sessionID: uuid.New().String(),
		logger:    logx.NewLogger("store"),
	}

	if marked, err := s.markStaleSessions(); err != nil {
		s.logger.Warn("failed to mark stale sessions: %v", err)
	} else if marked > 0 {
		s.logger.Info("marked %d stale session(s) as crashed", marked)
	}

	if err := s.createSession(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Debug("database opened: %s (session: %s)", dbPath, s.sessionID)
	return s, nil
}

// SessionID returns the id of the session started by OpenSQLite.
func (s *SQLiteStore) SessionID() string { return s.sessionID }

// Close ends the current session and closes the database.
func (s *SQLiteStore) Close() error {
	if _, err := s.db.Exec(`
		UPDATE sessions
		SET status = ?, ended_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE session_id = ?
	`, SessionStatusShutdown, s.sessionID); err != nil {
		s.logger.Warn("failed to close session %s: %v", s.sessionID, err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Get returns the value stored under key, and whether it was present.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, true, nil
}

// Put inserts or updates the value stored under key.
func (s *SQLiteStore) Put(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, session_id, updated_at)
		VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			session_id = excluded.session_id,
			updated_at = excluded.updated_at
	`, key, value, s.sessionID)
	if err != nil {
		return fmt.Errorf("failed to put key %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// ListKeys returns all keys in the store, across every namespace.
func (s *SQLiteStore) ListKeys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keys: %w", err)
	}
	return keys, nil
}

// createSession records the start of this process run.
func (s *SQLiteStore) createSession() error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (session_id, status)
		VALUES (?, ?)
	`, s.sessionID, SessionStatusActive)
	return err
}

// markStaleSessions marks any lingering 'active' sessions as 'crashed'.
func (s *SQLiteStore) markStaleSessions() (int64, error) {
	result, err := s.db.Exec(`
		UPDATE sessions
		SET status = ?, ended_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE status = ?
	`, SessionStatusCrashed, SessionStatusActive)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// initializeSchema ensures the database schema is at the current version.
// Idempotent and safe to call on every open.
func initializeSchema(db *sql.DB) error {
	version, err := schemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if version == 0 {
		return createSchema(db)
	}
	if version == CurrentSchemaVersion {
		return nil
	}
	return fmt.Errorf("unsupported schema version %d (current is %d)", version, CurrentSchemaVersion)
}

// schemaVersion returns the stored schema version, or 0 for a fresh database.
func schemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = 'schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}

	var version int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

// createSchema creates the fresh schema at the current version.
func createSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			session_id TEXT,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			ended_at   TEXT,
			status     TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}
