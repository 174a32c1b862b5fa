// Package features defines the feature availability matrix for the setup wizard.
//
// The matrix is the single source of truth for which optional features are
// legal on each system type and which config keys each feature owns. Every
// other module queries this package instead of re-deriving legality from
// system type strings.
package features

import (
	"github.com/swingerman/dual-thermostat-config/internal/models"
)

// rankOrder fixes the global precedence of feature steps. Openings always
// precede presets because preset values may reference other features' entities.
var rankOrder = []models.FeatureKey{
	models.FeatureFloorHeating,
	models.FeatureFan,
	models.FeatureHumidity,
	models.FeatureOpenings,
	models.FeaturePresets,
}

// matrix declares an explicit legality decision for every SystemType x FeatureKey
// combination.
var matrix = map[models.SystemType]map[models.FeatureKey]bool{
	models.SystemTypeSimpleHeater: {
		models.FeatureFloorHeating: true,
		models.FeatureFan:          false,
		models.FeatureHumidity:     false,
		models.FeatureOpenings:     true,
		models.FeaturePresets:      true,
	},
	models.SystemTypeACOnly: {
		models.FeatureFloorHeating: false,
		models.FeatureFan:          true,
		models.FeatureHumidity:     true,
		models.FeatureOpenings:     true,
		models.FeaturePresets:      true,
	},
	models.SystemTypeHeaterCooler: {
		models.FeatureFloorHeating: true,
		models.FeatureFan:          true,
		models.FeatureHumidity:     true,
		models.FeatureOpenings:     true,
		models.FeaturePresets:      true,
	},
	models.SystemTypeHeatPump: {
		models.FeatureFloorHeating: true,
		models.FeatureFan:          true,
		models.FeatureHumidity:     true,
		models.FeatureOpenings:     true,
		models.FeaturePresets:      true,
	},
	models.SystemTypeDualStage: {
		models.FeatureFloorHeating: true,
		models.FeatureFan:          false,
		models.FeatureHumidity:     false,
		models.FeatureOpenings:     true,
		models.FeaturePresets:      true,
	},
}

// ownedKeys maps each feature to the config keys it contributes. Per-preset
// temperature keys are dynamic and resolved by OwnerOf instead.
var ownedKeys = map[models.FeatureKey][]string{
	models.FeatureFloorHeating: {
		models.ConfigKeyFloorSensor,
		models.ConfigKeyMinFloorTemp,
		models.ConfigKeyMaxFloorTemp,
	},
	models.FeatureFan: {
		models.ConfigKeyFan,
		models.ConfigKeyFanOnWithAC,
		models.ConfigKeyFanAirOutside,
		models.ConfigKeyFanHotTolerance,
	},
	models.FeatureHumidity: {
		models.ConfigKeyHumiditySensor,
		models.ConfigKeyTargetHumidity,
		models.ConfigKeyDryer,
		models.ConfigKeyMoistTolerance,
		models.ConfigKeyDryTolerance,
	},
	models.FeatureOpenings: {
		models.ConfigKeySelectedOpenings,
		models.ConfigKeyOpenings,
		models.ConfigKeyOpeningsScope,
	},
	models.FeaturePresets: {
		models.ConfigKeySelectedPresets,
	},
}

// coreKeys maps each system type to the core-settings keys specific to it,
// beyond the universal keys.
var coreKeys = map[models.SystemType][]string{
	models.SystemTypeSimpleHeater: {
		models.ConfigKeyHeater,
	},
	models.SystemTypeACOnly: {
		models.ConfigKeyCooler,
		models.ConfigKeyACMode,
	},
	models.SystemTypeHeaterCooler: {
		models.ConfigKeyHeater,
		models.ConfigKeyCooler,
	},
	models.SystemTypeHeatPump: {
		models.ConfigKeyHeater,
		models.ConfigKeyHeatPumpCoolingSensor,
	},
	models.SystemTypeDualStage: {
		models.ConfigKeyHeater,
		models.ConfigKeySecondaryHeater,
		models.ConfigKeySecondaryHeaterTimeout,
	},
}

// universalKeys are legal on every system type.
var universalKeys = map[string]bool{
	models.ConfigKeyName:              true,
	models.ConfigKeySystemType:        true,
	models.ConfigKeyTemperatureSensor: true,
	models.ConfigKeyColdTolerance:     true,
	models.ConfigKeyHotTolerance:      true,
	models.ConfigKeyMinCycleDuration:  true,
}

// Rank returns every feature in global precedence order.
func Rank() []models.FeatureKey {
	out := make([]models.FeatureKey, len(rankOrder))
	copy(out, rankOrder)
	return out
}

// IsLegal reports whether the feature may be enabled on the system type.
func IsLegal(f models.FeatureKey, st models.SystemType) bool {
	return matrix[st][f]
}

// Legal returns the features legal for the system type, in precedence order.
func Legal(st models.SystemType) []models.FeatureKey {
	var out []models.FeatureKey
	for _, f := range rankOrder {
		if matrix[st][f] {
			out = append(out, f)
		}
	}
	return out
}

// OwnedKeys returns the config keys contributed by a feature. Per-preset
// temperature keys are excluded; use OwnerOf for those.
func OwnedKeys(f models.FeatureKey) []string {
	keys := ownedKeys[f]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// CoreKeys returns the core-settings keys specific to a system type.
func CoreKeys(st models.SystemType) []string {
	keys := coreKeys[st]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// IsUniversalKey reports whether the key is legal on every system type.
func IsUniversalKey(key string) bool {
	return universalKeys[key]
}

// IsCoreKey reports whether the key belongs to any system type's core settings.
func IsCoreKey(key string) bool {
	for _, keys := range coreKeys {
		for _, k := range keys {
			if k == key {
				return true
			}
		}
	}
	return false
}

// IsCoreKeyFor reports whether the key belongs to the core settings of st.
func IsCoreKeyFor(key string, st models.SystemType) bool {
	for _, k := range coreKeys[st] {
		if k == key {
			return true
		}
	}
	return false
}

// OwnerOf reports which feature owns the given config key, resolving dynamic
// per-preset temperature keys to the presets feature.
func OwnerOf(key string) (models.FeatureKey, bool) {
	for f, keys := range ownedKeys {
		for _, k := range keys {
			if k == key {
				return f, true
			}
		}
	}
	if _, ok := models.PresetOfTempKey(key); ok {
		return models.FeaturePresets, true
	}
	return "", false
}
