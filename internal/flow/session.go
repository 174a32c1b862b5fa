package flow

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"
	"github.com/swingerman/dual-thermostat-config/internal/models"
	"github.com/swingerman/dual-thermostat-config/internal/schema"
	"github.com/swingerman/dual-thermostat-config/internal/store"
)

// Outcome classifies a StepResult.
type Outcome string

const (
	// OutcomeShowStep asks the caller to render the given step.
	OutcomeShowStep Outcome = "show_step"
	// OutcomeCommit reports the flow finished and the record was persisted.
	OutcomeCommit Outcome = "commit"
	// OutcomeAbort reports the flow was abandoned.
	OutcomeAbort Outcome = "abort"
)

// StepResult is the engine's answer to one round trip: either the next step
// to render (with schema, pre-filled defaults, and any field errors of the
// rejected submission), a committed record, or an abort notice.
type StepResult struct {
	Outcome Outcome                 `json:"outcome"`
	Step    models.StepID           `json:"step,omitempty"`
	Schema  *schema.Descriptor      `json:"schema,omitempty"`
	Errors  models.ValidationErrors `json:"errors,omitempty"`
	EntryID string                  `json:"entry_id,omitempty"`
	Record  map[string]any          `json:"record,omitempty"`
	Reason  string                  `json:"reason,omitempty"`
}

// Engine drives wizard passes for all three entry points. It holds no
// per-flow state; everything lives in the store so passes survive restarts.
type Engine struct {
	store store.Store
}

// NewEngine creates a flow engine backed by the given store.
func NewEngine(st store.Store) *Engine {
	slog.Debug("Creating flow Engine")
	return &Engine{store: st}
}

// StartCreate begins a first-time setup pass with an empty working state.
func (e *Engine) StartCreate(ctx context.Context) (*models.FlowSession, StepResult, error) {
	return e.start(ctx, models.ModeCreate, "")
}

// StartEdit begins an options pass over an existing record. The working
// state is seeded from the merged base+overlay view, so values changed in a
// previous edit session are what the user sees.
func (e *Engine) StartEdit(ctx context.Context, entryID string) (*models.FlowSession, StepResult, error) {
	return e.start(ctx, models.ModeEdit, entryID)
}

// StartReconfigure begins a replace-in-place pass over an existing record,
// re-offering the system type selection.
func (e *Engine) StartReconfigure(ctx context.Context, entryID string) (*models.FlowSession, StepResult, error) {
	return e.start(ctx, models.ModeReconfigure, entryID)
}

func (e *Engine) start(ctx context.Context, mode models.Mode, entryID string) (*models.FlowSession, StepResult, error) {
	slog.Debug("Engine.start: beginning flow pass", "mode", mode, "entryID", entryID)

	ws := NewWorkingState()
	if mode != models.ModeCreate {
		rec, err := e.store.GetRecord(entryID)
		if err != nil {
			slog.Error("Engine.start: record lookup failed", "error", err, "entryID", entryID)
			return nil, StepResult{}, fmt.Errorf("%w: %v", models.ErrStorage, err)
		}
		if rec == nil {
			return nil, StepResult{}, fmt.Errorf("start %s for %s: %w", mode, entryID, models.ErrRecordNotFound)
		}
		ws = WorkingState(CurrentView(rec.Base, rec.Overlay))
	}

	visited := NewVisited()
	next, err := NextStep(ws, visited, mode)
	if err != nil {
		return nil, StepResult{}, err
	}

	session := &models.FlowSession{
		SessionID:    uuid.New().String(),
		Mode:         mode,
		EntryID:      entryID,
		CurrentStep:  next,
		WorkingState: ws,
		VisitedSteps: visited.Slice(),
	}
	if err := e.store.SaveFlowSession(*session); err != nil {
		slog.Error("Engine.start: failed to persist session", "error", err, "sessionID", session.SessionID)
		return nil, StepResult{}, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}

	result, err := e.showStep(next, ws, mode, nil)
	if err != nil {
		return nil, StepResult{}, err
	}
	slog.Info("Engine.start: flow pass started", "mode", mode, "sessionID", session.SessionID, "first_step", next)
	return session, result, nil
}

// Resume re-renders the current step of an existing session, so an abandoned
// wizard picks up exactly where it left off.
func (e *Engine) Resume(ctx context.Context, sessionID string) (StepResult, error) {
	session, err := e.loadSession(sessionID)
	if err != nil {
		return StepResult{}, err
	}
	return e.showStep(session.CurrentStep, WorkingState(session.WorkingState), session.Mode, nil)
}

// SubmitStep validates one step submission, merges it, and advances the
// pass. A rejected submission re-renders the same step with field errors and
// leaves the working state untouched. When the orchestrator signals
// completion, the filtered record is committed according to the entry mode.
func (e *Engine) SubmitStep(ctx context.Context, sessionID string, step models.StepID, raw map[string]any) (StepResult, error) {
	session, err := e.loadSession(sessionID)
	if err != nil {
		return StepResult{}, err
	}
	if step != session.CurrentStep {
		slog.Warn("Engine.SubmitStep: step mismatch", "sessionID", sessionID, "submitted", step, "current", session.CurrentStep)
		return StepResult{}, fmt.Errorf("%w: submitted %s, current is %s", models.ErrUnexpectedStep, step, session.CurrentStep)
	}

	ws := WorkingState(session.WorkingState)
	visited := VisitedFromSlice(session.VisitedSteps)

	hadMarker := ws.Bool(models.TransientKeySystemTypeChanged)
	merged, fieldErrs, err := Execute(step, raw, ws, session.Mode)
	if err != nil {
		return StepResult{}, err
	}
	if len(fieldErrs) > 0 {
		return e.showStep(step, ws, session.Mode, fieldErrs)
	}

	visited[step] = true
	if !hadMarker && merged.Bool(models.TransientKeySystemTypeChanged) {
		// The cascade demands a fresh walk through feature selection and
		// every downstream step, even if they were visited this pass.
		for v := range visited {
			if v != models.StepSystemType {
				delete(visited, v)
			}
		}
	}

	next, err := NextStep(merged, visited, session.Mode)
	if err != nil {
		return StepResult{}, err
	}

	if next == models.StepComplete {
		result, err := e.commit(session, merged)
		if err != nil {
			// Keep the session so the user can retry the commit without
			// re-entering anything.
			session.WorkingState = merged
			session.VisitedSteps = visited.Slice()
			if saveErr := e.store.SaveFlowSession(*session); saveErr != nil {
				slog.Error("Engine.SubmitStep: failed to preserve session after commit failure", "error", saveErr, "sessionID", sessionID)
			}
			return StepResult{}, err
		}
		if err := e.store.DeleteFlowSession(sessionID); err != nil {
			slog.Warn("Engine.SubmitStep: failed to delete finished session", "error", err, "sessionID", sessionID)
		}
		slog.Info("Engine.SubmitStep: flow committed", "sessionID", sessionID, "mode", session.Mode, "entryID", result.EntryID)
		return result, nil
	}

	session.WorkingState = merged
	session.VisitedSteps = visited.Slice()
	session.CurrentStep = next
	if err := e.store.SaveFlowSession(*session); err != nil {
		slog.Error("Engine.SubmitStep: failed to persist session", "error", err, "sessionID", sessionID)
		return StepResult{}, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	slog.Debug("Engine.SubmitStep: advanced", "sessionID", sessionID, "from", step, "to", next)
	return e.showStep(next, merged, session.Mode, nil)
}

// Abort discards the session and its working state.
func (e *Engine) Abort(ctx context.Context, sessionID string, reason string) (StepResult, error) {
	if err := e.store.DeleteFlowSession(sessionID); err != nil {
		slog.Error("Engine.Abort: failed to delete session", "error", err, "sessionID", sessionID)
		return StepResult{}, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	slog.Info("Engine.Abort: flow aborted", "sessionID", sessionID, "reason", reason)
	return StepResult{Outcome: OutcomeAbort, Step: models.StepAborted, Reason: reason}, nil
}

func (e *Engine) loadSession(sessionID string) (*models.FlowSession, error) {
	session, err := e.store.GetFlowSession(sessionID)
	if err != nil {
		slog.Error("Engine.loadSession: lookup failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrSessionNotFound)
	}
	if session.CurrentStep.IsTerminal() {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrSessionFinished)
	}
	if session.WorkingState == nil {
		session.WorkingState = make(map[string]any)
	}
	return session, nil
}

func (e *Engine) showStep(step models.StepID, ws WorkingState, mode models.Mode, errs models.ValidationErrors) (StepResult, error) {
	desc, err := StepSchema(step, ws, mode)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{Outcome: OutcomeShowStep, Step: step, Schema: &desc, Errors: errs}, nil
}

// commit runs the persistence filter and writes the record according to the
// entry mode: create saves a new base record, edit writes only the overlay,
// reconfigure replaces the base in place.
func (e *Engine) commit(session *models.FlowSession, ws WorkingState) (StepResult, error) {
	record := ToRecord(ws)

	switch session.Mode {
	case models.ModeCreate:
		entryID := uuid.New().String()
		if err := e.store.SaveRecord(models.ConfigRecord{EntryID: entryID, Base: record}); err != nil {
			slog.Error("Engine.commit: create save failed", "error", err)
			return StepResult{}, fmt.Errorf("%w: %v", models.ErrStorage, err)
		}
		return StepResult{Outcome: OutcomeCommit, Step: models.StepComplete, EntryID: entryID, Record: record}, nil

	case models.ModeEdit:
		rec, err := e.store.GetRecord(session.EntryID)
		if err != nil {
			return StepResult{}, fmt.Errorf("%w: %v", models.ErrStorage, err)
		}
		if rec == nil {
			return StepResult{}, fmt.Errorf("commit edit for %s: %w", session.EntryID, models.ErrRecordNotFound)
		}
		overlay := overlayDiff(rec.Base, record)
		if err := e.store.SaveOverlay(session.EntryID, overlay); err != nil {
			slog.Error("Engine.commit: overlay save failed", "error", err, "entryID", session.EntryID)
			return StepResult{}, fmt.Errorf("%w: %v", models.ErrStorage, err)
		}
		return StepResult{Outcome: OutcomeCommit, Step: models.StepComplete, EntryID: session.EntryID, Record: record}, nil

	case models.ModeReconfigure:
		if err := e.store.SaveRecord(models.ConfigRecord{EntryID: session.EntryID, Base: record}); err != nil {
			slog.Error("Engine.commit: reconfigure save failed", "error", err, "entryID", session.EntryID)
			return StepResult{}, fmt.Errorf("%w: %v", models.ErrStorage, err)
		}
		return StepResult{Outcome: OutcomeCommit, Step: models.StepComplete, EntryID: session.EntryID, Record: record}, nil

	default:
		return StepResult{}, fmt.Errorf("%w: %s", models.ErrInvalidMode, session.Mode)
	}
}

// overlayDiff computes the overlay to persist after an edit pass: every key
// whose value differs from the base layer, plus a nil tombstone for every
// base key the pass removed (a feature toggled off, for instance).
func overlayDiff(base, result map[string]any) map[string]any {
	overlay := make(map[string]any)
	for k, v := range result {
		if baseValue, ok := base[k]; !ok || !reflect.DeepEqual(baseValue, v) {
			overlay[k] = v
		}
	}
	for k := range base {
		if _, ok := result[k]; !ok {
			overlay[k] = nil
		}
	}
	return overlay
}
