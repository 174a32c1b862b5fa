// Package store provides storage backends for committed thermostat config
// records and in-progress flow sessions.
//
// It includes an in-memory store for tests and single-process use, an SQLite
// store for file-backed installs, and a PostgreSQL store for hosted
// deployments.
package store

import (
	"log/slog"
	"strings"

	"github.com/swingerman/dual-thermostat-config/internal/models"
)

// Store is the persistence contract the flow engine depends on. Config
// records keep an immutable base layer and a mutable overlay layer; flow
// sessions carry the working state of one in-progress wizard pass so an
// abandoned wizard is resumable.
type Store interface {
	// Config records.
	SaveRecord(rec models.ConfigRecord) error
	SaveOverlay(entryID string, overlay map[string]any) error
	GetRecord(entryID string) (*models.ConfigRecord, error)
	ListRecords() ([]models.ConfigRecord, error)
	DeleteRecord(entryID string) error

	// Flow sessions.
	SaveFlowSession(session models.FlowSession) error
	GetFlowSession(sessionID string) (*models.FlowSession, error)
	DeleteFlowSession(sessionID string) error

	Close() error
}

// Opts holds store configuration applied via functional options.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". Postgres DSNs
// use the URL scheme or the key=value connection form; everything else is
// treated as an SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewStore builds the backend matching the configured DSN. An empty DSN
// yields the in-memory store.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Debug("NewStore: no DSN configured, using in-memory store")
		return NewInMemoryStore(), nil
	}
	if DetectDSNType(cfg.DSN) == "postgres" {
		return NewPostgresStore(opts...)
	}
	return NewSQLiteStore(opts...)
}
