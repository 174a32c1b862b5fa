// Package models defines step identifiers to avoid circular imports.
package models

// StepID identifies a single step of the setup wizard.
type StepID string

// Step constants for the setup wizard.
const (
	// StepSystemType selects the system type (create and reconfigure only).
	StepSystemType StepID = "system_type"

	// Core settings steps, one per system type.
	StepBasicSimpleHeater StepID = "basic_simple_heater"
	StepBasicACOnly       StepID = "basic_ac_only"
	StepBasicHeaterCooler StepID = "basic_heater_cooler"
	StepBasicHeatPump     StepID = "basic_heat_pump"
	StepBasicDualStage    StepID = "basic_dual_stage"

	// StepFeatures toggles the optional features legal for the chosen system type.
	StepFeatures StepID = "features"

	// Per-feature configuration steps.
	StepFloorHeating      StepID = "floor_heating"
	StepFan               StepID = "fan"
	StepHumidity          StepID = "humidity"
	StepOpeningsSelection StepID = "openings_selection"
	StepOpeningsDetail    StepID = "openings_detail"
	StepPresetsSelection  StepID = "presets_selection"
	StepPresetsDetail     StepID = "presets_detail"

	// Terminal pseudo-steps.
	StepComplete StepID = "complete"
	StepAborted  StepID = "aborted"
)

// BasicStepFor returns the core-settings step for a system type.
func BasicStepFor(st SystemType) (StepID, bool) {
	switch st {
	case SystemTypeSimpleHeater:
		return StepBasicSimpleHeater, true
	case SystemTypeACOnly:
		return StepBasicACOnly, true
	case SystemTypeHeaterCooler:
		return StepBasicHeaterCooler, true
	case SystemTypeHeatPump:
		return StepBasicHeatPump, true
	case SystemTypeDualStage:
		return StepBasicDualStage, true
	default:
		return "", false
	}
}

// FeatureStepFor returns the configuration step a feature toggle leads to.
// Openings and presets start at their selection step.
func FeatureStepFor(f FeatureKey) (StepID, bool) {
	switch f {
	case FeatureFloorHeating:
		return StepFloorHeating, true
	case FeatureFan:
		return StepFan, true
	case FeatureHumidity:
		return StepHumidity, true
	case FeatureOpenings:
		return StepOpeningsSelection, true
	case FeaturePresets:
		return StepPresetsSelection, true
	default:
		return "", false
	}
}

// IsTerminal reports whether the step ends the flow.
func (s StepID) IsTerminal() bool {
	return s == StepComplete || s == StepAborted
}
