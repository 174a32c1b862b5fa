// Package store provides storage backends for the dual thermostat config wizard.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/swingerman/dual-thermostat-config/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// SaveRecord stores or replaces a config record's base layer. Replacing an
// existing record clears its overlay, matching reconfigure semantics.
func (s *PostgresStore) SaveRecord(rec models.ConfigRecord) error {
	baseJSON, err := marshalMap(rec.Base)
	if err != nil {
		slog.Error("PostgresStore SaveRecord marshal failed", "error", err, "entryID", rec.EntryID)
		return err
	}
	now := time.Now()
	_, err = s.db.Exec(`
		INSERT INTO config_records (entry_id, base, overlay, created_at, updated_at)
		VALUES ($1, $2, NULL, $3, $4)
		ON CONFLICT (entry_id) DO UPDATE SET base = EXCLUDED.base, overlay = NULL, updated_at = EXCLUDED.updated_at`,
		rec.EntryID, baseJSON, now, now)
	if err != nil {
		slog.Error("PostgresStore SaveRecord failed", "error", err, "entryID", rec.EntryID)
		return fmt.Errorf("failed to save record %s: %w", rec.EntryID, err)
	}
	slog.Debug("PostgresStore SaveRecord succeeded", "entryID", rec.EntryID)
	return nil
}

// SaveOverlay replaces the overlay layer of an existing record, leaving the
// base layer untouched.
func (s *PostgresStore) SaveOverlay(entryID string, overlay map[string]any) error {
	overlayJSON, err := marshalMap(overlay)
	if err != nil {
		slog.Error("PostgresStore SaveOverlay marshal failed", "error", err, "entryID", entryID)
		return err
	}
	res, err := s.db.Exec(`UPDATE config_records SET overlay = $1, updated_at = $2 WHERE entry_id = $3`,
		overlayJSON, time.Now(), entryID)
	if err != nil {
		slog.Error("PostgresStore SaveOverlay failed", "error", err, "entryID", entryID)
		return fmt.Errorf("failed to save overlay for %s: %w", entryID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("save overlay for %s: %w", entryID, models.ErrRecordNotFound)
	}
	slog.Debug("PostgresStore SaveOverlay succeeded", "entryID", entryID)
	return nil
}

// GetRecord retrieves a config record, or nil when absent.
func (s *PostgresStore) GetRecord(entryID string) (*models.ConfigRecord, error) {
	row := s.db.QueryRow(`SELECT entry_id, base, overlay, created_at, updated_at FROM config_records WHERE entry_id = $1`, entryID)
	rec, err := scanRecordRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetRecord not found", "entryID", entryID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetRecord failed", "error", err, "entryID", entryID)
		return nil, err
	}
	return rec, nil
}

// ListRecords returns all config records.
func (s *PostgresStore) ListRecords() ([]models.ConfigRecord, error) {
	rows, err := s.db.Query(`SELECT entry_id, base, overlay, created_at, updated_at FROM config_records ORDER BY created_at`)
	if err != nil {
		slog.Error("PostgresStore ListRecords query failed", "error", err)
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.ConfigRecord
	for rows.Next() {
		rec, err := scanRecordRows(rows)
		if err != nil {
			slog.Error("PostgresStore ListRecords scan failed", "error", err)
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListRecords rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate record rows: %w", err)
	}
	slog.Debug("PostgresStore ListRecords succeeded", "count", len(records))
	return records, nil
}

// DeleteRecord removes a config record.
func (s *PostgresStore) DeleteRecord(entryID string) error {
	_, err := s.db.Exec(`DELETE FROM config_records WHERE entry_id = $1`, entryID)
	if err != nil {
		slog.Error("PostgresStore DeleteRecord failed", "error", err, "entryID", entryID)
		return err
	}
	return nil
}

// SaveFlowSession stores or updates a flow session.
func (s *PostgresStore) SaveFlowSession(session models.FlowSession) error {
	stateJSON, err := marshalMap(session.WorkingState)
	if err != nil {
		slog.Error("PostgresStore SaveFlowSession marshal failed", "error", err, "sessionID", session.SessionID)
		return err
	}
	visitedJSON, err := marshalSteps(session.VisitedSteps)
	if err != nil {
		slog.Error("PostgresStore SaveFlowSession marshal failed", "error", err, "sessionID", session.SessionID)
		return err
	}
	now := time.Now()
	created := session.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err = s.db.Exec(`
		INSERT INTO flow_sessions (session_id, mode, entry_id, current_step, working_state, visited_steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO UPDATE SET
			mode = EXCLUDED.mode, entry_id = EXCLUDED.entry_id, current_step = EXCLUDED.current_step,
			working_state = EXCLUDED.working_state, visited_steps = EXCLUDED.visited_steps, updated_at = EXCLUDED.updated_at`,
		session.SessionID, string(session.Mode), nilIfEmpty(session.EntryID), string(session.CurrentStep),
		stateJSON, visitedJSON, created, now)
	if err != nil {
		slog.Error("PostgresStore SaveFlowSession failed", "error", err, "sessionID", session.SessionID)
		return fmt.Errorf("failed to save flow session %s: %w", session.SessionID, err)
	}
	slog.Debug("PostgresStore SaveFlowSession succeeded", "sessionID", session.SessionID, "step", session.CurrentStep)
	return nil
}

// GetFlowSession retrieves a flow session, or nil when absent.
func (s *PostgresStore) GetFlowSession(sessionID string) (*models.FlowSession, error) {
	row := s.db.QueryRow(`SELECT session_id, mode, entry_id, current_step, working_state, visited_steps, created_at, updated_at
		FROM flow_sessions WHERE session_id = $1`, sessionID)
	session, err := scanSessionRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetFlowSession not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetFlowSession failed", "error", err, "sessionID", sessionID)
		return nil, err
	}
	return session, nil
}

// DeleteFlowSession removes a flow session.
func (s *PostgresStore) DeleteFlowSession(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM flow_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		slog.Error("PostgresStore DeleteFlowSession failed", "error", err, "sessionID", sessionID)
		return err
	}
	slog.Debug("PostgresStore DeleteFlowSession succeeded", "sessionID", sessionID)
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
