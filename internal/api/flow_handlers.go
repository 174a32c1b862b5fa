// Package api provides wizard flow handlers for the config server endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/swingerman/dual-thermostat-config/internal/flow"
	"github.com/swingerman/dual-thermostat-config/internal/models"
)

// startFlowRequest is the body of POST /flows.
type startFlowRequest struct {
	Mode    models.Mode `json:"mode"`
	EntryID string      `json:"entry_id,omitempty"`
}

// submitStepRequest is the body of POST /flows/{id}/steps.
type submitStepRequest struct {
	Step   models.StepID  `json:"step"`
	Values map[string]any `json:"values"`
}

// startFlowResponse pairs the new session id with the first step to render.
type startFlowResponse struct {
	SessionID string          `json:"session_id"`
	Result    flow.StepResult `json:"result"`
}

// startFlowHandler handles POST /flows
func (s *Server) startFlowHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.startFlowHandler: processing start request", "method", r.Method, "path", r.URL.Path)

	var req startFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.startFlowHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if !models.IsValidMode(req.Mode) {
		slog.Warn("Server.startFlowHandler: invalid mode", "mode", req.Mode)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid flow mode"))
		return
	}
	if req.Mode != models.ModeCreate && req.EntryID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: entry_id"))
		return
	}

	var (
		session *models.FlowSession
		result  flow.StepResult
		err     error
	)
	switch req.Mode {
	case models.ModeCreate:
		session, result, err = s.engine.StartCreate(r.Context())
	case models.ModeEdit:
		session, result, err = s.engine.StartEdit(r.Context(), req.EntryID)
	case models.ModeReconfigure:
		session, result, err = s.engine.StartReconfigure(r.Context(), req.EntryID)
	}
	if err != nil {
		writeFlowError(w, "startFlowHandler", err)
		return
	}

	slog.Info("Server.startFlowHandler: flow started", "mode", req.Mode, "sessionID", session.SessionID)
	writeJSONResponse(w, http.StatusCreated, models.Success(startFlowResponse{
		SessionID: session.SessionID,
		Result:    result,
	}))
}

// resumeFlowHandler handles GET /flows/{id}
func (s *Server) resumeFlowHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("Server.resumeFlowHandler: processing resume request", "sessionID", sessionID)

	result, err := s.engine.Resume(r.Context(), sessionID)
	if err != nil {
		writeFlowError(w, "resumeFlowHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// submitStepHandler handles POST /flows/{id}/steps
func (s *Server) submitStepHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	sessionID := r.PathValue("id")
	slog.Debug("Server.submitStepHandler: processing step submission", "sessionID", sessionID)

	var req submitStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.submitStepHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Step == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: step"))
		return
	}

	result, err := s.engine.SubmitStep(r.Context(), sessionID, req.Step, req.Values)
	if err != nil {
		writeFlowError(w, "submitStepHandler", err)
		return
	}

	status := http.StatusOK
	if len(result.Errors) > 0 {
		// The submission was rejected field-by-field; the same step is
		// re-rendered with the error map.
		status = http.StatusUnprocessableEntity
	}
	writeJSONResponse(w, status, models.Success(result))
}

// abortFlowHandler handles DELETE /flows/{id}
func (s *Server) abortFlowHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = "aborted by client"
	}
	slog.Debug("Server.abortFlowHandler: processing abort request", "sessionID", sessionID, "reason", reason)

	result, err := s.engine.Abort(r.Context(), sessionID, reason)
	if err != nil {
		writeFlowError(w, "abortFlowHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flow aborted", result))
}

// writeFlowError maps engine errors onto HTTP status codes.
func writeFlowError(w http.ResponseWriter, handler string, err error) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound), errors.Is(err, models.ErrRecordNotFound):
		slog.Warn("Server."+handler+": not found", "error", err)
		writeJSONResponse(w, http.StatusNotFound, models.Error(err.Error()))
	case errors.Is(err, models.ErrUnexpectedStep), errors.Is(err, models.ErrSessionFinished):
		slog.Warn("Server."+handler+": conflicting request", "error", err)
		writeJSONResponse(w, http.StatusConflict, models.Error(err.Error()))
	case errors.Is(err, models.ErrInvalidMode), errors.Is(err, models.ErrUnknownStep),
		errors.Is(err, models.ErrInvalidSystemType), errors.Is(err, models.ErrIllegalFeatureField):
		slog.Warn("Server."+handler+": bad request", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
	default:
		slog.Error("Server."+handler+": internal error", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
	}
}
