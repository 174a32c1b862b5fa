package features

import (
	"testing"

	"github.com/swingerman/dual-thermostat-config/internal/models"
)

func TestIsLegal(t *testing.T) {
	cases := []struct {
		feature models.FeatureKey
		st      models.SystemType
		want    bool
	}{
		{models.FeatureFloorHeating, models.SystemTypeSimpleHeater, true},
		{models.FeatureFloorHeating, models.SystemTypeACOnly, false},
		{models.FeatureFan, models.SystemTypeSimpleHeater, false},
		{models.FeatureFan, models.SystemTypeACOnly, true},
		{models.FeatureHumidity, models.SystemTypeDualStage, false},
		{models.FeatureHumidity, models.SystemTypeHeatPump, true},
		{models.FeatureOpenings, models.SystemTypeACOnly, true},
		{models.FeaturePresets, models.SystemTypeHeatPump, true},
	}
	for _, c := range cases {
		if got := IsLegal(c.feature, c.st); got != c.want {
			t.Errorf("IsLegal(%s, %s) = %v, want %v", c.feature, c.st, got, c.want)
		}
	}
}

func TestMatrixCoversAllCombinations(t *testing.T) {
	for _, st := range models.SystemTypes() {
		row, ok := matrix[st]
		if !ok {
			t.Fatalf("matrix missing system type %s", st)
		}
		for _, f := range Rank() {
			if _, ok := row[f]; !ok {
				t.Errorf("matrix missing decision for %s x %s", st, f)
			}
		}
	}
}

func TestLegalPreservesRankOrder(t *testing.T) {
	legal := Legal(models.SystemTypeHeaterCooler)
	want := []models.FeatureKey{
		models.FeatureFloorHeating,
		models.FeatureFan,
		models.FeatureHumidity,
		models.FeatureOpenings,
		models.FeaturePresets,
	}
	if len(legal) != len(want) {
		t.Fatalf("Legal(heater_cooler) returned %d features, want %d", len(legal), len(want))
	}
	for i := range want {
		if legal[i] != want[i] {
			t.Errorf("Legal(heater_cooler)[%d] = %s, want %s", i, legal[i], want[i])
		}
	}
}

func TestOpeningsAndPresetsLegalEverywhere(t *testing.T) {
	for _, st := range models.SystemTypes() {
		if !IsLegal(models.FeatureOpenings, st) {
			t.Errorf("openings should be legal for %s", st)
		}
		if !IsLegal(models.FeaturePresets, st) {
			t.Errorf("presets should be legal for %s", st)
		}
	}
}

func TestOwnerOf(t *testing.T) {
	cases := []struct {
		key   string
		owner models.FeatureKey
		found bool
	}{
		{models.ConfigKeyFloorSensor, models.FeatureFloorHeating, true},
		{models.ConfigKeyFanHotTolerance, models.FeatureFan, true},
		{models.ConfigKeyDryer, models.FeatureHumidity, true},
		{models.ConfigKeyOpenings, models.FeatureOpenings, true},
		{models.ConfigKeySelectedPresets, models.FeaturePresets, true},
		{"away_temp", models.FeaturePresets, true},
		{"home_temp_low", models.FeaturePresets, true},
		{"sleep_temp_high", models.FeaturePresets, true},
		{models.ConfigKeyName, "", false},
		{models.ConfigKeyHeater, "", false},
		{"bogus_temp", "", false},
	}
	for _, c := range cases {
		owner, found := OwnerOf(c.key)
		if found != c.found || owner != c.owner {
			t.Errorf("OwnerOf(%q) = (%s, %v), want (%s, %v)", c.key, owner, found, c.owner, c.found)
		}
	}
}

func TestCoreKeys(t *testing.T) {
	if keys := CoreKeys(models.SystemTypeHeatPump); len(keys) != 2 {
		t.Errorf("heat pump core keys = %v, want heater and cooling sensor", keys)
	}
	if !IsCoreKeyFor(models.ConfigKeyHeatPumpCoolingSensor, models.SystemTypeHeatPump) {
		t.Error("cooling sensor should be a heat pump core key")
	}
	if IsCoreKeyFor(models.ConfigKeyHeatPumpCoolingSensor, models.SystemTypeSimpleHeater) {
		t.Error("cooling sensor must not be a simple heater core key")
	}
	if !IsCoreKeyFor(models.ConfigKeySecondaryHeater, models.SystemTypeDualStage) {
		t.Error("secondary heater should be a dual stage core key")
	}
}
