// Package models defines persistence structures for the setup wizard.
package models

import "time"

// ConfigRecord is a committed thermostat configuration. The base layer is
// written at creation (or replaced by reconfigure); the overlay layer holds
// options-flow edits and wins key-for-key when the two are merged.
type ConfigRecord struct {
	EntryID   string         `json:"entry_id"`
	Base      map[string]any `json:"base"`
	Overlay   map[string]any `json:"overlay,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// FlowSession is the persisted form of one in-progress wizard pass. It keeps
// the collected working state and the visited-step set, so an abandoned
// wizard is resumable across process restarts.
type FlowSession struct {
	SessionID    string         `json:"session_id"`
	Mode         Mode           `json:"mode"`
	EntryID      string         `json:"entry_id,omitempty"` // set for edit and reconfigure
	CurrentStep  StepID         `json:"current_step"`
	WorkingState map[string]any `json:"working_state,omitempty"`
	VisitedSteps []StepID       `json:"visited_steps,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string `json:"status"`            // status of the API response
	Message string `json:"message,omitempty"` // optional message for error responses or additional info
	Result  any    `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result any) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result any) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
