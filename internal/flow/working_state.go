// Package flow implements the step-sequencing engine of the setup wizard.
//
// A flow pass accumulates a WorkingState, one accepted step at a time, until
// the orchestrator signals completion and the persistence filter converts the
// state into a committed config record. The engine is pure computation over
// in-memory values; all I/O belongs to the store and to the caller.
package flow

import (
	"log/slog"

	"github.com/swingerman/dual-thermostat-config/internal/features"
	"github.com/swingerman/dual-thermostat-config/internal/models"
)

// WorkingState is the accumulating flat key/value record of one wizard pass.
// It is passed into and returned from every transition function; no function
// mutates a caller's state in place.
type WorkingState map[string]any

// NewWorkingState returns an empty working state.
func NewWorkingState() WorkingState {
	return make(WorkingState)
}

// Clone returns a shallow copy of the working state.
func (ws WorkingState) Clone() WorkingState {
	out := make(WorkingState, len(ws))
	for k, v := range ws {
		out[k] = v
	}
	return out
}

// SystemType returns the system type collected so far, if any.
func (ws WorkingState) SystemType() models.SystemType {
	if s, ok := ws[models.ConfigKeySystemType].(string); ok {
		return models.SystemType(s)
	}
	if st, ok := ws[models.ConfigKeySystemType].(models.SystemType); ok {
		return st
	}
	return ""
}

// Bool returns the boolean value stored under key, or false.
func (ws WorkingState) Bool(key string) bool {
	b, ok := ws[key].(bool)
	return ok && b
}

// StringSlice returns the string list stored under key, tolerating the
// []any form produced by a JSON round trip through the store.
func (ws WorkingState) StringSlice(key string) []string {
	switch v := ws[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ToggleEnabled reports whether the feature's toggle is set in the state.
func (ws WorkingState) ToggleEnabled(f models.FeatureKey) bool {
	return ws.Bool(models.ToggleKey(f))
}

// MergeChecked merges values on top of the working state and returns the
// result. Every key is checked against the feature availability matrix for
// the (possibly incoming) system type; a key owned by a feature that is not
// legal, or a core key of a different system type, is rejected with
// ErrIllegalFeatureField before anything is merged.
func (ws WorkingState) MergeChecked(values map[string]any) (WorkingState, error) {
	st := ws.SystemType()
	if s, ok := values[models.ConfigKeySystemType].(string); ok {
		st = models.SystemType(s)
	}

	for key := range values {
		if err := checkKeyLegal(key, st); err != nil {
			slog.Error("WorkingState.MergeChecked: illegal key rejected", "key", key, "system_type", st, "error", err)
			return ws, err
		}
	}

	out := ws.Clone()
	for k, v := range values {
		out[k] = v
	}
	return out, nil
}

// WithoutKeys returns a copy of the working state with the given keys removed.
func (ws WorkingState) WithoutKeys(keys ...string) WorkingState {
	out := ws.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// checkKeyLegal validates a single key against the current system type.
// Transient keys and universal keys are always allowed.
func checkKeyLegal(key string, st models.SystemType) error {
	if models.IsTransientKey(key) || features.IsUniversalKey(key) {
		return nil
	}
	if owner, owned := features.OwnerOf(key); owned {
		if st != "" && !features.IsLegal(owner, st) {
			return models.ErrIllegalFeatureField
		}
		return nil
	}
	if features.IsCoreKey(key) {
		if st != "" && !features.IsCoreKeyFor(key, st) {
			return models.ErrIllegalFeatureField
		}
		return nil
	}
	return nil
}

// purgeFeature removes every config key owned by the feature, including
// dynamic per-preset temperature keys, and the feature's toggle echo.
func purgeFeature(ws WorkingState, f models.FeatureKey) WorkingState {
	out := ws.Clone()
	for _, k := range features.OwnedKeys(f) {
		delete(out, k)
	}
	if f == models.FeaturePresets {
		for k := range out {
			if _, ok := models.PresetOfTempKey(k); ok {
				delete(out, k)
			}
		}
	}
	delete(out, models.ToggleKey(f))
	return out
}

// featureDataPresent reports whether any detail field owned by the feature
// is present in the state. Used to prefill toggles on edit and reconfigure
// passes, where toggles themselves were never persisted.
func featureDataPresent(ws WorkingState, f models.FeatureKey) bool {
	for _, k := range features.OwnedKeys(f) {
		if _, ok := ws[k]; ok {
			return true
		}
	}
	if f == models.FeaturePresets {
		for k := range ws {
			if _, ok := models.PresetOfTempKey(k); ok {
				return true
			}
		}
	}
	return false
}

// Visited tracks which steps have been accepted during the current pass.
// It lives alongside the working state, never inside it, so visited markers
// can never leak into the persisted record.
type Visited map[models.StepID]bool

// NewVisited returns an empty visited set.
func NewVisited() Visited {
	return make(Visited)
}

// Clone returns a copy of the visited set.
func (v Visited) Clone() Visited {
	out := make(Visited, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Slice returns the visited steps as a slice for persistence.
func (v Visited) Slice() []models.StepID {
	out := make([]models.StepID, 0, len(v))
	for step, ok := range v {
		if ok {
			out = append(out, step)
		}
	}
	return out
}

// VisitedFromSlice rebuilds a visited set from its persisted form.
func VisitedFromSlice(steps []models.StepID) Visited {
	out := make(Visited, len(steps))
	for _, s := range steps {
		out[s] = true
	}
	return out
}
