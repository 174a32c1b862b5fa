package flow

import (
	"log/slog"
	"strings"

	"github.com/swingerman/dual-thermostat-config/internal/features"
	"github.com/swingerman/dual-thermostat-config/internal/models"
)

// ApplySystemTypeChange invalidates fields made incompatible by a system
// type change during reconfiguration. Retained are universal fields, core
// fields of the new type, and feature fields whose owning feature is legal
// for the new type and whose toggle is set in the state this pass. Everything
// else is dropped, the system type is rewritten, and the transient
// system_type_changed marker is set so the orchestrator forces feature
// selection to be shown again.
//
// Dropping now-illegal fields here is an expected operation, distinct from
// the merge-time ErrIllegalFeatureField rejection.
func ApplySystemTypeChange(oldType, newType models.SystemType, ws WorkingState) WorkingState {
	if oldType == newType {
		return ws
	}
	slog.Info("ApplySystemTypeChange: invalidating fields for new system type", "old", oldType, "new", newType)

	out := NewWorkingState()
	for key, value := range ws {
		if key == models.ConfigKeySystemType {
			continue
		}
		if features.IsUniversalKey(key) {
			out[key] = value
			continue
		}
		if features.IsCoreKey(key) {
			if features.IsCoreKeyFor(key, newType) {
				out[key] = value
			} else {
				slog.Debug("ApplySystemTypeChange: dropping core field of old system type", "key", key)
			}
			continue
		}
		if owner, owned := features.OwnerOf(key); owned {
			// A feature survives the change only if it stays legal and its
			// toggle was set during this pass. Toggles are transient, so a
			// pass that has not reached feature selection retains nothing.
			if features.IsLegal(owner, newType) && ws.ToggleEnabled(owner) {
				out[key] = value
			} else {
				slog.Debug("ApplySystemTypeChange: dropping feature field", "key", key, "feature", owner)
			}
			continue
		}
		if models.IsTransientKey(key) {
			// Toggle echoes of features illegal under the new type are dropped;
			// the rest carry over until the persistence filter removes them.
			if f, ok := featureOfToggle(key); ok && !features.IsLegal(f, newType) {
				continue
			}
			out[key] = value
			continue
		}
		out[key] = value
	}

	out[models.ConfigKeySystemType] = string(newType)
	out[models.TransientKeySystemTypeChanged] = true
	return out
}

// featureOfToggle resolves a configure_* toggle key back to its feature.
func featureOfToggle(key string) (models.FeatureKey, bool) {
	if !strings.HasPrefix(key, models.TogglePrefix) {
		return "", false
	}
	f := models.FeatureKey(strings.TrimPrefix(key, models.TogglePrefix))
	if !models.IsValidFeatureKey(f) {
		return "", false
	}
	return f, true
}
