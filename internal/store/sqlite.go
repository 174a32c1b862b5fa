// Package store provides storage backends for the dual thermostat config wizard.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/swingerman/dual-thermostat-config/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveRecord stores or replaces a config record's base layer. Replacing an
// existing record clears its overlay, matching reconfigure semantics.
func (s *SQLiteStore) SaveRecord(rec models.ConfigRecord) error {
	baseJSON, err := marshalMap(rec.Base)
	if err != nil {
		slog.Error("SQLiteStore SaveRecord marshal failed", "error", err, "entryID", rec.EntryID)
		return err
	}
	now := time.Now()
	_, err = s.db.Exec(`
		INSERT INTO config_records (entry_id, base, overlay, created_at, updated_at)
		VALUES (?, ?, NULL, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET base = excluded.base, overlay = NULL, updated_at = excluded.updated_at`,
		rec.EntryID, baseJSON, now, now)
	if err != nil {
		slog.Error("SQLiteStore SaveRecord failed", "error", err, "entryID", rec.EntryID)
		return fmt.Errorf("failed to save record %s: %w", rec.EntryID, err)
	}
	slog.Debug("SQLiteStore SaveRecord succeeded", "entryID", rec.EntryID)
	return nil
}

// SaveOverlay replaces the overlay layer of an existing record, leaving the
// base layer untouched.
func (s *SQLiteStore) SaveOverlay(entryID string, overlay map[string]any) error {
	overlayJSON, err := marshalMap(overlay)
	if err != nil {
		slog.Error("SQLiteStore SaveOverlay marshal failed", "error", err, "entryID", entryID)
		return err
	}
	res, err := s.db.Exec(`UPDATE config_records SET overlay = ?, updated_at = ? WHERE entry_id = ?`,
		overlayJSON, time.Now(), entryID)
	if err != nil {
		slog.Error("SQLiteStore SaveOverlay failed", "error", err, "entryID", entryID)
		return fmt.Errorf("failed to save overlay for %s: %w", entryID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("save overlay for %s: %w", entryID, models.ErrRecordNotFound)
	}
	slog.Debug("SQLiteStore SaveOverlay succeeded", "entryID", entryID)
	return nil
}

// GetRecord retrieves a config record, or nil when absent.
func (s *SQLiteStore) GetRecord(entryID string) (*models.ConfigRecord, error) {
	row := s.db.QueryRow(`SELECT entry_id, base, overlay, created_at, updated_at FROM config_records WHERE entry_id = ?`, entryID)
	rec, err := scanRecordRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetRecord not found", "entryID", entryID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetRecord failed", "error", err, "entryID", entryID)
		return nil, err
	}
	return rec, nil
}

// ListRecords returns all config records.
func (s *SQLiteStore) ListRecords() ([]models.ConfigRecord, error) {
	rows, err := s.db.Query(`SELECT entry_id, base, overlay, created_at, updated_at FROM config_records ORDER BY created_at`)
	if err != nil {
		slog.Error("SQLiteStore ListRecords query failed", "error", err)
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.ConfigRecord
	for rows.Next() {
		rec, err := scanRecordRows(rows)
		if err != nil {
			slog.Error("SQLiteStore ListRecords scan failed", "error", err)
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListRecords rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate record rows: %w", err)
	}
	slog.Debug("SQLiteStore ListRecords succeeded", "count", len(records))
	return records, nil
}

// DeleteRecord removes a config record.
func (s *SQLiteStore) DeleteRecord(entryID string) error {
	_, err := s.db.Exec(`DELETE FROM config_records WHERE entry_id = ?`, entryID)
	if err != nil {
		slog.Error("SQLiteStore DeleteRecord failed", "error", err, "entryID", entryID)
		return err
	}
	return nil
}

// SaveFlowSession stores or updates a flow session.
func (s *SQLiteStore) SaveFlowSession(session models.FlowSession) error {
	stateJSON, err := marshalMap(session.WorkingState)
	if err != nil {
		slog.Error("SQLiteStore SaveFlowSession marshal failed", "error", err, "sessionID", session.SessionID)
		return err
	}
	visitedJSON, err := marshalSteps(session.VisitedSteps)
	if err != nil {
		slog.Error("SQLiteStore SaveFlowSession marshal failed", "error", err, "sessionID", session.SessionID)
		return err
	}
	now := time.Now()
	created := session.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO flow_sessions (session_id, mode, entry_id, current_step, working_state, visited_steps, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID, string(session.Mode), nilIfEmpty(session.EntryID), string(session.CurrentStep),
		stateJSON, visitedJSON, created, now)
	if err != nil {
		slog.Error("SQLiteStore SaveFlowSession failed", "error", err, "sessionID", session.SessionID)
		return fmt.Errorf("failed to save flow session %s: %w", session.SessionID, err)
	}
	slog.Debug("SQLiteStore SaveFlowSession succeeded", "sessionID", session.SessionID, "step", session.CurrentStep)
	return nil
}

// GetFlowSession retrieves a flow session, or nil when absent.
func (s *SQLiteStore) GetFlowSession(sessionID string) (*models.FlowSession, error) {
	row := s.db.QueryRow(`SELECT session_id, mode, entry_id, current_step, working_state, visited_steps, created_at, updated_at
		FROM flow_sessions WHERE session_id = ?`, sessionID)
	session, err := scanSessionRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetFlowSession not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetFlowSession failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	return session, nil
}

// DeleteFlowSession removes a flow session.
func (s *SQLiteStore) DeleteFlowSession(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM flow_sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		slog.Error("SQLiteStore DeleteFlowSession failed", "error", err, "sessionID", sessionID)
		return err
	}
	slog.Debug("SQLiteStore DeleteFlowSession succeeded", "sessionID", sessionID)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
