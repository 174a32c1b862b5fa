package flow

import (
	"fmt"
	"log/slog"

	"github.com/swingerman/dual-thermostat-config/internal/features"
	"github.com/swingerman/dual-thermostat-config/internal/models"
)

// rankedFeatureSteps are the per-feature steps emitted in global precedence
// order before the always-last openings and presets blocks.
var rankedFeatureSteps = []models.FeatureKey{
	models.FeatureFloorHeating,
	models.FeatureFan,
	models.FeatureHumidity,
}

// NextStep inspects the working state and the visited set and picks the next
// unvisited step of the pass, or StepComplete when nothing remains. Steps
// with no enabled or applicable feature are skipped, never visited with an
// empty form.
func NextStep(ws WorkingState, visited Visited, mode models.Mode) (models.StepID, error) {
	// System type selection is an entry-point step: create passes collect it,
	// reconfigure passes re-offer it to allow a type change. Edit passes never
	// show it; the type is immutable there.
	if mode != models.ModeEdit && !visited[models.StepSystemType] {
		return models.StepSystemType, nil
	}

	st := ws.SystemType()
	if st == "" {
		// Edit passes are seeded from a committed record, which always carries
		// a system type. Reaching this point without one is a seeding defect.
		return "", fmt.Errorf("%w: working state has no system type", models.ErrInvalidSystemType)
	}
	basic, ok := models.BasicStepFor(st)
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrInvalidSystemType, st)
	}
	if !visited[basic] {
		return basic, nil
	}

	if !visited[models.StepFeatures] {
		return models.StepFeatures, nil
	}

	for _, f := range rankedFeatureSteps {
		step, _ := models.FeatureStepFor(f)
		if features.IsLegal(f, st) && ws.ToggleEnabled(f) && !visited[step] {
			return step, nil
		}
	}

	if ws.ToggleEnabled(models.FeatureOpenings) {
		if err := ensureRankedFeaturesResolved(ws, visited, st); err != nil {
			return "", err
		}
		if !visited[models.StepOpeningsSelection] {
			return models.StepOpeningsSelection, nil
		}
		if len(ws.StringSlice(models.ConfigKeySelectedOpenings)) > 0 && !visited[models.StepOpeningsDetail] {
			return models.StepOpeningsDetail, nil
		}
	}

	if ws.ToggleEnabled(models.FeaturePresets) {
		if err := ensureOpeningsResolved(ws, visited); err != nil {
			return "", err
		}
		if !visited[models.StepPresetsSelection] {
			return models.StepPresetsSelection, nil
		}
		if !visited[models.StepPresetsDetail] && presetsDetailNeeded(ws, mode) {
			return models.StepPresetsDetail, nil
		}
	}

	slog.Debug("NextStep: pass complete", "system_type", st, "mode", mode)
	return models.StepComplete, nil
}

// ensureRankedFeaturesResolved fails loudly if openings would be emitted
// while an enabled floor/fan/humidity step is still pending. The transition
// rules make this unreachable; hitting it means the matrix and the
// orchestrator disagree.
func ensureRankedFeaturesResolved(ws WorkingState, visited Visited, st models.SystemType) error {
	for _, f := range rankedFeatureSteps {
		step, _ := models.FeatureStepFor(f)
		if features.IsLegal(f, st) && ws.ToggleEnabled(f) && !visited[step] {
			return fmt.Errorf("%w: openings emitted before %s", models.ErrOrderingViolation, step)
		}
	}
	return nil
}

// ensureOpeningsResolved fails loudly if presets would be emitted before the
// openings block is visited or skipped.
func ensureOpeningsResolved(ws WorkingState, visited Visited) error {
	if !ws.ToggleEnabled(models.FeatureOpenings) {
		return nil
	}
	if !visited[models.StepOpeningsSelection] {
		return fmt.Errorf("%w: presets emitted before openings selection", models.ErrOrderingViolation)
	}
	if len(ws.StringSlice(models.ConfigKeySelectedOpenings)) > 0 && !visited[models.StepOpeningsDetail] {
		return fmt.Errorf("%w: presets emitted before openings detail", models.ErrOrderingViolation)
	}
	return nil
}

// presetsDetailNeeded decides whether the presets detail step follows the
// selection step. Create and reconfigure passes show it whenever at least
// one preset is chosen. Edit passes favor fewer clicks: the detail step is
// shown only when a chosen preset still lacks a stored temperature, so
// re-saving an unchanged selection finishes the flow immediately.
func presetsDetailNeeded(ws WorkingState, mode models.Mode) bool {
	chosen := ws.StringSlice(models.ConfigKeySelectedPresets)
	if len(chosen) == 0 {
		return false
	}
	if mode != models.ModeEdit {
		return true
	}
	ranged := presetsRanged(ws.SystemType())
	for _, preset := range chosen {
		if ranged {
			low, high := models.PresetTempRangeKeys(preset)
			if _, ok := ws[low]; !ok {
				return true
			}
			if _, ok := ws[high]; !ok {
				return true
			}
			continue
		}
		if _, ok := ws[models.PresetTempKey(preset)]; !ok {
			return true
		}
	}
	return false
}

// presetsRanged reports whether the system type targets a temperature range,
// requiring low/high preset values instead of a single target.
func presetsRanged(st models.SystemType) bool {
	return st == models.SystemTypeHeaterCooler || st == models.SystemTypeHeatPump
}
