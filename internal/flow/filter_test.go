package flow

import (
	"reflect"
	"testing"

	"github.com/swingerman/dual-thermostat-config/internal/models"
)

func TestToRecordStripsTransientKeys(t *testing.T) {
	ws := WorkingState{
		models.ConfigKeySystemType:              "ac_only",
		models.ConfigKeyName:                    "Bedroom",
		models.ConfigKeyCooler:                  "switch.ac",
		models.ToggleKey(models.FeatureFan):     true,
		models.ToggleKey(models.FeaturePresets): false,
		models.TransientKeySystemTypeChanged:    true,
		models.ConfigKeyFan:                     "switch.fan",
	}

	record := ToRecord(ws)

	want := map[string]any{
		models.ConfigKeySystemType: "ac_only",
		models.ConfigKeyName:       "Bedroom",
		models.ConfigKeyCooler:     "switch.ac",
		models.ConfigKeyFan:        "switch.fan",
	}
	if !reflect.DeepEqual(record, want) {
		t.Errorf("filtered record mismatch:\ngot  %v\nwant %v", record, want)
	}
}

func TestToRecordIsIdempotent(t *testing.T) {
	ws := WorkingState{
		models.ConfigKeySystemType:          "simple_heater",
		models.ConfigKeyHeater:              "switch.heater",
		models.ToggleKey(models.FeatureFan): true,
	}
	once := ToRecord(ws)
	twice := ToRecord(WorkingState(once))
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filter not idempotent:\nonce  %v\ntwice %v", once, twice)
	}
}

func TestToRecordLeavesStateUntouched(t *testing.T) {
	ws := WorkingState{
		models.ConfigKeySystemType:          "simple_heater",
		models.ToggleKey(models.FeatureFan): true,
	}
	_ = ToRecord(ws)
	if !ws.ToggleEnabled(models.FeatureFan) {
		t.Error("ToRecord must not mutate its input")
	}
}
