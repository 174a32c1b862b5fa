package flow

import (
	"fmt"

	"github.com/swingerman/dual-thermostat-config/internal/models"
	"github.com/swingerman/dual-thermostat-config/internal/schema"
)

// Default tolerances in degrees, matching the runtime thermostat defaults.
const (
	defaultColdTolerance = 0.3
	defaultHotTolerance  = 0.3
)

// systemTypeStep selects the hardware topology. It is the first step of
// create and reconfigure passes; edit passes never see it.
type systemTypeStep struct{}

func (systemTypeStep) ID() models.StepID { return models.StepSystemType }

func (systemTypeStep) Schema(ws WorkingState, _ models.Mode) schema.Descriptor {
	options := make([]string, 0, len(models.SystemTypes()))
	for _, st := range models.SystemTypes() {
		options = append(options, string(st))
	}
	return schema.Descriptor{Fields: withDefaults([]schema.Field{
		{Name: models.ConfigKeySystemType, Type: schema.TypeSelect, Widget: schema.WidgetDropdown, Required: true, Options: options},
	}, ws)}
}

func (systemTypeStep) Apply(ws WorkingState, mode models.Mode, values map[string]any) (WorkingState, error) {
	raw, ok := values[models.ConfigKeySystemType].(string)
	if !ok {
		return ws, fmt.Errorf("%w: system type missing from submission", models.ErrInvalidSystemType)
	}
	newType := models.SystemType(raw)
	if !models.IsValidSystemType(newType) {
		return ws, fmt.Errorf("%w: %s", models.ErrInvalidSystemType, newType)
	}

	oldType := ws.SystemType()
	if mode == models.ModeReconfigure && oldType != "" && oldType != newType {
		return ApplySystemTypeChange(oldType, newType, ws), nil
	}
	return ws.MergeChecked(map[string]any{models.ConfigKeySystemType: string(newType)})
}

// coreSettingsStep collects the entities and tolerances of one system type.
// One instance exists per system type; the field set varies with it.
type coreSettingsStep struct {
	id         models.StepID
	systemType models.SystemType
}

func (s coreSettingsStep) ID() models.StepID { return s.id }

func (s coreSettingsStep) Schema(ws WorkingState, _ models.Mode) schema.Descriptor {
	fields := []schema.Field{
		{Name: models.ConfigKeyName, Type: schema.TypeString, Widget: schema.WidgetText, Required: true},
		{Name: models.ConfigKeyTemperatureSensor, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"sensor"}},
	}

	switch s.systemType {
	case models.SystemTypeSimpleHeater:
		fields = append(fields,
			schema.Field{Name: models.ConfigKeyHeater, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"switch", "input_boolean"}},
		)
	case models.SystemTypeACOnly:
		fields = append(fields,
			schema.Field{Name: models.ConfigKeyCooler, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"switch", "input_boolean"}},
			schema.Field{Name: models.ConfigKeyACMode, Type: schema.TypeBool, Widget: schema.WidgetToggle, Default: true},
		)
	case models.SystemTypeHeaterCooler:
		fields = append(fields,
			schema.Field{Name: models.ConfigKeyHeater, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"switch", "input_boolean"}},
			schema.Field{Name: models.ConfigKeyCooler, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"switch", "input_boolean"}},
		)
	case models.SystemTypeHeatPump:
		fields = append(fields,
			schema.Field{Name: models.ConfigKeyHeater, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"switch", "input_boolean"}},
			schema.Field{Name: models.ConfigKeyHeatPumpCoolingSensor, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"sensor", "binary_sensor", "input_boolean"}},
		)
	case models.SystemTypeDualStage:
		fields = append(fields,
			schema.Field{Name: models.ConfigKeyHeater, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"switch", "input_boolean"}},
			schema.Field{Name: models.ConfigKeySecondaryHeater, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"switch", "input_boolean"}},
			schema.Field{Name: models.ConfigKeySecondaryHeaterTimeout, Type: schema.TypeDuration, Widget: schema.WidgetDuration, Required: true},
		)
	}

	fields = append(fields,
		schema.Field{Name: models.ConfigKeyColdTolerance, Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Default: defaultColdTolerance, Min: schema.FloatPtr(0.0), Max: schema.FloatPtr(10.0)},
		schema.Field{Name: models.ConfigKeyHotTolerance, Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Default: defaultHotTolerance, Min: schema.FloatPtr(0.0), Max: schema.FloatPtr(10.0)},
		schema.Field{Name: models.ConfigKeyMinCycleDuration, Type: schema.TypeDuration, Widget: schema.WidgetDuration},
	)
	return schema.Descriptor{Fields: withDefaults(fields, ws)}
}

func (s coreSettingsStep) Apply(ws WorkingState, _ models.Mode, values map[string]any) (WorkingState, error) {
	return ws.MergeChecked(values)
}
