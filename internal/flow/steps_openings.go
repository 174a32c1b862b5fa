package flow

import (
	"fmt"

	"github.com/swingerman/dual-thermostat-config/internal/models"
	"github.com/swingerman/dual-thermostat-config/internal/schema"
	"github.com/swingerman/dual-thermostat-config/internal/validate"
)

// openingsScopes lists which HVAC modes the openings interlock applies to.
var openingsScopes = []string{"all", "heat", "cool", "heat_cool", "fan_only", "dry"}

// openingsSelectionStep picks the door/window entities that act as safety
// interlocks.
type openingsSelectionStep struct{}

func (openingsSelectionStep) ID() models.StepID { return models.StepOpeningsSelection }

func (openingsSelectionStep) Schema(ws WorkingState, _ models.Mode) schema.Descriptor {
	return schema.Descriptor{Fields: withDefaults([]schema.Field{
		{Name: models.ConfigKeySelectedOpenings, Type: schema.TypeMulti, Widget: schema.WidgetChecklist, Required: true},
	}, ws)}
}

func (openingsSelectionStep) Apply(ws WorkingState, _ models.Mode, values map[string]any) (WorkingState, error) {
	raw, submitted := values[models.ConfigKeySelectedOpenings]
	if !submitted {
		// An omitted field merges nothing; the stored selection stands.
		return ws, nil
	}
	selected, kind := validate.StringList(raw)
	if kind != "" {
		return ws, fmt.Errorf("selected openings must be a list of entity ids")
	}
	for _, entity := range selected {
		if _, k := validate.EntityID(entity, "binary_sensor", "sensor", "switch", "input_boolean"); k != "" {
			return ws, fmt.Errorf("invalid opening entity %q", entity)
		}
	}
	return ws.MergeChecked(map[string]any{models.ConfigKeySelectedOpenings: selected})
}

// openingsDetailStep collects per-entity timeout settings for the selected
// openings. Entities deselected since the selection step have their
// sub-objects dropped here.
type openingsDetailStep struct{}

func (openingsDetailStep) ID() models.StepID { return models.StepOpeningsDetail }

func (openingsDetailStep) Schema(ws WorkingState, _ models.Mode) schema.Descriptor {
	return schema.Descriptor{Fields: withDefaults([]schema.Field{
		{Name: models.ConfigKeyOpenings, Type: schema.TypeList, Widget: schema.WidgetChecklist},
		{Name: models.ConfigKeyOpeningsScope, Type: schema.TypeSelect, Widget: schema.WidgetDropdown, Options: openingsScopes, Default: "all"},
	}, ws)}
}

func (openingsDetailStep) Apply(ws WorkingState, _ models.Mode, values map[string]any) (WorkingState, error) {
	merged := make(map[string]any, 2)
	if scope, ok := values[models.ConfigKeyOpeningsScope]; ok {
		merged[models.ConfigKeyOpeningsScope] = scope
	}

	rawEntries, submitted := values[models.ConfigKeyOpenings]
	if !submitted {
		// Stored entries (and their timeouts) stand when the form omits them.
		if len(merged) == 0 {
			return ws, nil
		}
		return ws.MergeChecked(merged)
	}

	submittedEntries, err := normalizeOpenings(rawEntries)
	if err != nil {
		return ws, err
	}

	// Keep submitted entries for still-selected entities only, then fill in
	// a plain entry for every selected entity the form omitted.
	selected := ws.StringSlice(models.ConfigKeySelectedOpenings)
	entries := make([]models.OpeningEntry, 0, len(selected))
	seen := make(map[string]bool, len(selected))
	for _, entry := range submittedEntries {
		if !containsString(selected, entry.EntityID) || seen[entry.EntityID] {
			continue
		}
		seen[entry.EntityID] = true
		entries = append(entries, entry)
	}
	for _, entity := range selected {
		if !seen[entity] {
			entries = append(entries, models.OpeningEntry{EntityID: entity})
		}
	}

	merged[models.ConfigKeyOpenings] = entries
	return ws.MergeChecked(merged)
}

// normalizeOpenings accepts the two shapes the form layer produces: a plain
// entity-id string per entry, or a sub-object with timeout settings. Timeout
// values are coerced to seconds.
func normalizeOpenings(raw any) ([]models.OpeningEntry, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		if strs, kind := validate.StringList(raw); kind == "" {
			items = make([]any, len(strs))
			for i, s := range strs {
				items[i] = s
			}
		} else {
			return nil, fmt.Errorf("openings must be a list")
		}
	}

	out := make([]models.OpeningEntry, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, models.OpeningEntry{EntityID: v})
		case map[string]any:
			entity, _ := v["entity_id"].(string)
			if entity == "" {
				return nil, fmt.Errorf("opening entry missing entity_id")
			}
			entry := models.OpeningEntry{EntityID: entity}
			open, err := openingTimeout(v, "timeout_open", entity)
			if err != nil {
				return nil, err
			}
			entry.TimeoutOpen = open
			closed, err := openingTimeout(v, "timeout_close", entity)
			if err != nil {
				return nil, err
			}
			entry.TimeoutClose = closed
			out = append(out, entry)
		default:
			return nil, fmt.Errorf("opening entry has unsupported type %T", item)
		}
	}
	return out, nil
}

func openingTimeout(entry map[string]any, key, entity string) (float64, error) {
	raw, ok := entry[key]
	if !ok || raw == nil {
		return 0, nil
	}
	secs, kind := validate.DurationSeconds(raw)
	if kind != "" {
		return 0, fmt.Errorf("opening %s has invalid %s", entity, key)
	}
	f, _ := secs.(float64)
	return f, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
