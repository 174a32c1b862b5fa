// Package models defines configuration field keys for the collected config.
//
// These keys name the values stored in a flow's working state and, after the
// persistence filter, in the committed config record. Transient keys drive
// step navigation only and never reach the persisted record.
package models

import "strings"

// Universal config keys present regardless of system type.
const (
	ConfigKeyName              = "name"
	ConfigKeySystemType        = "system_type"
	ConfigKeyTemperatureSensor = "temperature_sensor"
	ConfigKeyColdTolerance     = "cold_tolerance"
	ConfigKeyHotTolerance      = "hot_tolerance"
	ConfigKeyMinCycleDuration  = "min_cycle_duration"
)

// Core keys specific to individual system types.
const (
	ConfigKeyHeater                 = "heater"
	ConfigKeyCooler                 = "cooler"
	ConfigKeyACMode                 = "ac_mode"
	ConfigKeyHeatPumpCoolingSensor  = "heat_pump_cooling_sensor"
	ConfigKeySecondaryHeater        = "secondary_heater"
	ConfigKeySecondaryHeaterTimeout = "secondary_heater_timeout"
)

// Floor heating keys.
const (
	ConfigKeyFloorSensor  = "floor_sensor"
	ConfigKeyMinFloorTemp = "min_floor_temp"
	ConfigKeyMaxFloorTemp = "max_floor_temp"
)

// Fan keys.
const (
	ConfigKeyFan             = "fan"
	ConfigKeyFanOnWithAC     = "fan_on_with_ac"
	ConfigKeyFanAirOutside   = "fan_air_outside"
	ConfigKeyFanHotTolerance = "fan_hot_tolerance"
)

// Humidity keys.
const (
	ConfigKeyHumiditySensor = "humidity_sensor"
	ConfigKeyTargetHumidity = "target_humidity"
	ConfigKeyDryer          = "dryer"
	ConfigKeyMoistTolerance = "moist_tolerance"
	ConfigKeyDryTolerance   = "dry_tolerance"
)

// Openings keys.
const (
	ConfigKeySelectedOpenings = "selected_openings"
	ConfigKeyOpenings         = "openings"
	ConfigKeyOpeningsScope    = "openings_scope"
)

// Presets keys. Per-preset temperature keys are derived with PresetTempKey.
const (
	ConfigKeySelectedPresets = "selected_presets"
)

// Transient keys drive step navigation only and are stripped by the
// persistence filter before commit.
const (
	// TogglePrefix prefixes every feature toggle echoed into the working state.
	TogglePrefix = "configure_"
	// TransientKeySystemTypeChanged marks a pass whose system type was changed
	// by the reconfigure cascade, forcing feature selection to be shown again.
	TransientKeySystemTypeChanged = "system_type_changed"
)

// ToggleKey returns the working-state toggle key for a feature.
func ToggleKey(f FeatureKey) string {
	return TogglePrefix + string(f)
}

// IsTransientKey reports whether the key is flow-control bookkeeping that
// must never reach the persisted record.
func IsTransientKey(key string) bool {
	return key == TransientKeySystemTypeChanged || strings.HasPrefix(key, TogglePrefix)
}

// Presets lists the supported comfort presets in presentation order.
func Presets() []string {
	return []string{"away", "eco", "home", "sleep", "comfort", "anti_freeze", "activity", "boost"}
}

// IsValidPreset checks if name is a supported comfort preset.
func IsValidPreset(name string) bool {
	for _, p := range Presets() {
		if p == name {
			return true
		}
	}
	return false
}

// Preset temperature key suffixes.
const (
	presetTempSuffix     = "_temp"
	presetTempLowSuffix  = "_temp_low"
	presetTempHighSuffix = "_temp_high"
)

// PresetTempKey returns the single-target temperature key for a preset.
func PresetTempKey(preset string) string {
	return preset + presetTempSuffix
}

// PresetTempRangeKeys returns the low/high target keys for a preset on
// systems with ranged targets (heater+cooler, heat pump).
func PresetTempRangeKeys(preset string) (low, high string) {
	return preset + presetTempLowSuffix, preset + presetTempHighSuffix
}

// PresetOfTempKey reports the preset owning a temperature key, if any.
func PresetOfTempKey(key string) (string, bool) {
	for _, suffix := range []string{presetTempLowSuffix, presetTempHighSuffix, presetTempSuffix} {
		if strings.HasSuffix(key, suffix) {
			preset := strings.TrimSuffix(key, suffix)
			if IsValidPreset(preset) {
				return preset, true
			}
		}
	}
	return "", false
}

// OpeningEntry is one door/window interlock entry with optional timeouts.
type OpeningEntry struct {
	EntityID     string  `json:"entity_id"`
	TimeoutOpen  float64 `json:"timeout_open,omitempty"`
	TimeoutClose float64 `json:"timeout_close,omitempty"`
}
