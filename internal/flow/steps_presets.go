package flow

import (
	"github.com/swingerman/dual-thermostat-config/internal/models"
	"github.com/swingerman/dual-thermostat-config/internal/schema"
)

// Preset temperature bounds in degrees.
const (
	presetTempMin = 5.0
	presetTempMax = 35.0
)

// presetsSelectionStep chooses which comfort presets the thermostat offers.
// Presets is always the last feature block because preset values may
// reference entities collected by earlier features.
type presetsSelectionStep struct{}

func (presetsSelectionStep) ID() models.StepID { return models.StepPresetsSelection }

func (presetsSelectionStep) Schema(ws WorkingState, _ models.Mode) schema.Descriptor {
	return schema.Descriptor{Fields: withDefaults([]schema.Field{
		{Name: models.ConfigKeySelectedPresets, Type: schema.TypeMulti, Widget: schema.WidgetChecklist, Options: models.Presets()},
	}, ws)}
}

func (presetsSelectionStep) Apply(ws WorkingState, _ models.Mode, values map[string]any) (WorkingState, error) {
	raw, submitted := values[models.ConfigKeySelectedPresets]
	if !submitted {
		// An omitted field merges nothing; the stored selection and its
		// temperatures stand.
		return ws, nil
	}
	chosen, _ := raw.([]string)
	out, err := ws.MergeChecked(map[string]any{models.ConfigKeySelectedPresets: chosen})
	if err != nil {
		return ws, err
	}

	// Temperature fields of presets no longer selected must not linger.
	for key := range out {
		preset, ok := models.PresetOfTempKey(key)
		if ok && !containsString(chosen, preset) {
			delete(out, key)
		}
	}
	return out, nil
}

// presetsDetailStep collects target temperatures for the chosen presets
// only; unselected presets contribute no fields. Ranged system types take a
// low/high pair per preset instead of a single target.
type presetsDetailStep struct{}

func (presetsDetailStep) ID() models.StepID { return models.StepPresetsDetail }

func (presetsDetailStep) Schema(ws WorkingState, _ models.Mode) schema.Descriptor {
	chosen := ws.StringSlice(models.ConfigKeySelectedPresets)
	ranged := presetsRanged(ws.SystemType())

	var fields []schema.Field
	for _, preset := range chosen {
		if ranged {
			low, high := models.PresetTempRangeKeys(preset)
			fields = append(fields,
				schema.Field{Name: low, Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Required: true, Min: schema.FloatPtr(presetTempMin), Max: schema.FloatPtr(presetTempMax)},
				schema.Field{Name: high, Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Required: true, Min: schema.FloatPtr(presetTempMin), Max: schema.FloatPtr(presetTempMax)},
			)
			continue
		}
		fields = append(fields, schema.Field{
			Name: models.PresetTempKey(preset), Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Required: true,
			Min: schema.FloatPtr(presetTempMin), Max: schema.FloatPtr(presetTempMax),
		})
	}
	return schema.Descriptor{Fields: withDefaults(fields, ws)}
}

func (presetsDetailStep) Apply(ws WorkingState, _ models.Mode, values map[string]any) (WorkingState, error) {
	return ws.MergeChecked(values)
}
