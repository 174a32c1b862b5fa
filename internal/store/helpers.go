package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/swingerman/dual-thermostat-config/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// marshalMap serializes a key/value map for a nullable JSON column.
func marshalMap(m map[string]any) (interface{}, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal map failed: %w", err)
	}
	return string(data), nil
}

// marshalSteps serializes a visited-step list for a nullable JSON column.
func marshalSteps(steps []models.StepID) (interface{}, error) {
	if len(steps) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("marshal steps failed: %w", err)
	}
	return string(data), nil
}

func unmarshalMap(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil, fmt.Errorf("unmarshal map failed: %w", err)
	}
	return m, nil
}

func unmarshalSteps(raw sql.NullString) ([]models.StepID, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var steps []models.StepID
	if err := json.Unmarshal([]byte(raw.String), &steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps failed: %w", err)
	}
	return steps, nil
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a ConfigRecord from a record row.
func scanRecord(row rowScanner) (*models.ConfigRecord, error) {
	var rec models.ConfigRecord
	var baseJSON, overlayJSON sql.NullString
	if err := row.Scan(&rec.EntryID, &baseJSON, &overlayJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if rec.Base, err = unmarshalMap(baseJSON); err != nil {
		return nil, err
	}
	if rec.Overlay, err = unmarshalMap(overlayJSON); err != nil {
		return nil, err
	}
	return &rec, nil
}

// scanRecordRow scans a ConfigRecord from a single sql.Row.
func scanRecordRow(row *sql.Row) (*models.ConfigRecord, error) {
	return scanRecord(row)
}

// scanRecordRows scans a ConfigRecord from sql.Rows.
func scanRecordRows(rows *sql.Rows) (*models.ConfigRecord, error) {
	rec, err := scanRecord(rows)
	if err != nil {
		return nil, fmt.Errorf("scan record failed: %w", err)
	}
	return rec, nil
}

// scanSessionRow scans a FlowSession from a single sql.Row.
func scanSessionRow(row *sql.Row) (*models.FlowSession, error) {
	var session models.FlowSession
	var mode, step string
	var entryID, stateJSON, visitedJSON sql.NullString
	if err := row.Scan(&session.SessionID, &mode, &entryID, &step, &stateJSON, &visitedJSON, &session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, err
	}
	session.Mode = models.Mode(mode)
	session.CurrentStep = models.StepID(step)
	session.EntryID = entryID.String
	var err error
	if session.WorkingState, err = unmarshalMap(stateJSON); err != nil {
		return nil, err
	}
	if session.VisitedSteps, err = unmarshalSteps(visitedJSON); err != nil {
		return nil, err
	}
	return &session, nil
}
