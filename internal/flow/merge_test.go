package flow

import (
	"testing"

	"github.com/swingerman/dual-thermostat-config/internal/models"
)

func TestCurrentViewOverlayWins(t *testing.T) {
	base := map[string]any{
		models.ConfigKeyName:          "Living Room",
		models.ConfigKeyColdTolerance: 0.3,
	}
	overlay := map[string]any{
		models.ConfigKeyColdTolerance: 0.8,
	}

	view := CurrentView(base, overlay)

	if view[models.ConfigKeyColdTolerance] != 0.8 {
		t.Errorf("overlay value lost, got %v", view[models.ConfigKeyColdTolerance])
	}
	if view[models.ConfigKeyName] != "Living Room" {
		t.Errorf("base value lost, got %v", view[models.ConfigKeyName])
	}
}

func TestCurrentViewNilTombstoneDeletes(t *testing.T) {
	base := map[string]any{
		models.ConfigKeyName:         "Office",
		models.PresetTempKey("away"): 18.0,
	}
	overlay := map[string]any{
		models.PresetTempKey("away"): nil,
	}

	view := CurrentView(base, overlay)

	if _, ok := view[models.PresetTempKey("away")]; ok {
		t.Error("tombstoned key survived the merge")
	}
	if _, ok := view[models.ConfigKeyName]; !ok {
		t.Error("untouched base key lost")
	}
}

func TestCurrentViewDoesNotMutateLayers(t *testing.T) {
	base := map[string]any{models.ConfigKeyName: "Attic"}
	overlay := map[string]any{models.ConfigKeyName: nil}
	_ = CurrentView(base, overlay)
	if base[models.ConfigKeyName] != "Attic" {
		t.Error("base layer mutated")
	}
	if v, ok := overlay[models.ConfigKeyName]; !ok || v != nil {
		t.Error("overlay layer mutated")
	}
}

func TestCurrentViewEmptyLayers(t *testing.T) {
	if view := CurrentView(nil, nil); len(view) != 0 {
		t.Errorf("expected empty view, got %v", view)
	}
}
