// Package models defines the core data structures for the dual thermostat setup wizard.
//
// It includes the closed system-type and feature enumerations, the flow entry
// modes, and shared error variables used across modules.
package models

import "errors"

// SystemType identifies the fixed hardware topology of a thermostat.
type SystemType string

const (
	// SystemTypeSimpleHeater is a single heater switch with one temperature sensor.
	SystemTypeSimpleHeater SystemType = "simple_heater"
	// SystemTypeACOnly is a cooling-only system driven by an AC switch.
	SystemTypeACOnly SystemType = "ac_only"
	// SystemTypeHeaterCooler combines independent heating and cooling switches.
	SystemTypeHeaterCooler SystemType = "heater_cooler"
	// SystemTypeHeatPump is a single switch that heats or cools depending on an external mode sensor.
	SystemTypeHeatPump SystemType = "heat_pump"
	// SystemTypeDualStage is a heater with a secondary (aux) heating stage.
	SystemTypeDualStage SystemType = "dual_stage"
)

// IsValidSystemType checks if the given system type is supported.
func IsValidSystemType(st SystemType) bool {
	switch st {
	case SystemTypeSimpleHeater, SystemTypeACOnly, SystemTypeHeaterCooler, SystemTypeHeatPump, SystemTypeDualStage:
		return true
	default:
		return false
	}
}

// SystemTypes lists every supported system type in presentation order.
func SystemTypes() []SystemType {
	return []SystemType{
		SystemTypeSimpleHeater,
		SystemTypeACOnly,
		SystemTypeHeaterCooler,
		SystemTypeHeatPump,
		SystemTypeDualStage,
	}
}

// FeatureKey identifies an optional capability block of the thermostat.
type FeatureKey string

const (
	// FeatureFloorHeating adds a floor temperature sensor with min/max limits.
	FeatureFloorHeating FeatureKey = "floor_heating"
	// FeatureFan adds a fan switch and fan behavior options.
	FeatureFan FeatureKey = "fan"
	// FeatureHumidity adds a humidity sensor and dryer control.
	FeatureHumidity FeatureKey = "humidity"
	// FeatureOpenings adds door/window safety interlocks with per-entity timeouts.
	FeatureOpenings FeatureKey = "openings"
	// FeaturePresets adds comfort presets with per-preset target temperatures.
	FeaturePresets FeatureKey = "presets"
)

// IsValidFeatureKey checks if the given feature key is supported.
func IsValidFeatureKey(f FeatureKey) bool {
	switch f {
	case FeatureFloorHeating, FeatureFan, FeatureHumidity, FeatureOpenings, FeaturePresets:
		return true
	default:
		return false
	}
}

// Mode identifies the flow entry point driving a wizard pass.
type Mode string

const (
	// ModeCreate is the first-time setup flow producing a new config record.
	ModeCreate Mode = "create"
	// ModeEdit is the options flow writing an overlay on top of the base record.
	ModeEdit Mode = "edit"
	// ModeReconfigure replaces the base record in place and allows a system type change.
	ModeReconfigure Mode = "reconfigure"
)

// IsValidMode checks if the given flow mode is supported.
func IsValidMode(m Mode) bool {
	switch m {
	case ModeCreate, ModeEdit, ModeReconfigure:
		return true
	default:
		return false
	}
}

// Error variables for better error handling and testability
var (
	ErrInvalidSystemType   = errors.New("invalid system type")
	ErrInvalidMode         = errors.New("invalid flow mode")
	ErrUnknownStep         = errors.New("unknown step")
	ErrUnexpectedStep      = errors.New("submitted step does not match the current step")
	ErrIllegalFeatureField = errors.New("field belongs to a feature not legal for the current system type")
	ErrOrderingViolation   = errors.New("step ordering invariant violated")
	ErrSessionNotFound     = errors.New("flow session not found")
	ErrSessionFinished     = errors.New("flow session already finished")
	ErrRecordNotFound      = errors.New("config record not found")
	ErrStorage             = errors.New("storage failure")
)

// FieldErrorKind classifies a single-field validation failure for the form layer.
type FieldErrorKind string

const (
	FieldErrorRequired        FieldErrorKind = "required"
	FieldErrorInvalidEntity   FieldErrorKind = "invalid_entity_id"
	FieldErrorInvalidNumber   FieldErrorKind = "invalid_number"
	FieldErrorOutOfRange      FieldErrorKind = "out_of_range"
	FieldErrorInvalidDuration FieldErrorKind = "invalid_duration"
	FieldErrorInvalidOption   FieldErrorKind = "invalid_option"
)

// ValidationErrors maps field names to error kinds for one rejected submission.
type ValidationErrors map[string]FieldErrorKind
