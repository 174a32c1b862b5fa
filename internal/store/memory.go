package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/swingerman/dual-thermostat-config/internal/models"
)

// InMemoryStore keeps records and sessions in process memory. Used by tests
// and by installs that configure no database DSN.
type InMemoryStore struct {
	mu       sync.Mutex
	records  map[string]models.ConfigRecord
	sessions map[string]models.FlowSession
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:  make(map[string]models.ConfigRecord),
		sessions: make(map[string]models.FlowSession),
	}
}

// SaveRecord stores or replaces a config record's base layer. Replacing an
// existing record clears its overlay, matching reconfigure semantics.
func (s *InMemoryStore) SaveRecord(rec models.ConfigRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	existing, ok := s.records[rec.EntryID]
	if ok {
		rec.CreatedAt = existing.CreatedAt
	} else if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Base = copyMap(rec.Base)
	rec.Overlay = nil
	s.records[rec.EntryID] = rec
	slog.Debug("InMemoryStore SaveRecord succeeded", "entryID", rec.EntryID)
	return nil
}

// SaveOverlay replaces the overlay layer of an existing record, leaving the
// base layer untouched.
func (s *InMemoryStore) SaveOverlay(entryID string, overlay map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[entryID]
	if !ok {
		return fmt.Errorf("save overlay for %s: %w", entryID, models.ErrRecordNotFound)
	}
	rec.Overlay = copyMap(overlay)
	rec.UpdatedAt = time.Now()
	s.records[entryID] = rec
	slog.Debug("InMemoryStore SaveOverlay succeeded", "entryID", entryID, "overlay_keys", len(overlay))
	return nil
}

// GetRecord retrieves a config record, or nil when absent.
func (s *InMemoryStore) GetRecord(entryID string) (*models.ConfigRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[entryID]
	if !ok {
		return nil, nil
	}
	rec.Base = copyMap(rec.Base)
	rec.Overlay = copyMap(rec.Overlay)
	return &rec, nil
}

// ListRecords returns all config records.
func (s *InMemoryStore) ListRecords() ([]models.ConfigRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ConfigRecord, 0, len(s.records))
	for _, rec := range s.records {
		rec.Base = copyMap(rec.Base)
		rec.Overlay = copyMap(rec.Overlay)
		out = append(out, rec)
	}
	return out, nil
}

// DeleteRecord removes a config record.
func (s *InMemoryStore) DeleteRecord(entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, entryID)
	return nil
}

// SaveFlowSession stores or updates a flow session.
func (s *InMemoryStore) SaveFlowSession(session models.FlowSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.sessions[session.SessionID]; ok {
		session.CreatedAt = existing.CreatedAt
	} else if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	session.WorkingState = copyMap(session.WorkingState)
	s.sessions[session.SessionID] = session
	slog.Debug("InMemoryStore SaveFlowSession succeeded", "sessionID", session.SessionID, "step", session.CurrentStep)
	return nil
}

// GetFlowSession retrieves a flow session, or nil when absent.
func (s *InMemoryStore) GetFlowSession(sessionID string) (*models.FlowSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	session.WorkingState = copyMap(session.WorkingState)
	return &session, nil
}

// DeleteFlowSession removes a flow session.
func (s *InMemoryStore) DeleteFlowSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
