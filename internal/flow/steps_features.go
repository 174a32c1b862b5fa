package flow

import (
	"github.com/swingerman/dual-thermostat-config/internal/features"
	"github.com/swingerman/dual-thermostat-config/internal/models"
	"github.com/swingerman/dual-thermostat-config/internal/schema"
)

// Floor temperature limit defaults in degrees.
const (
	defaultMinFloorTemp   = 5.0
	defaultMaxFloorTemp   = 28.0
	defaultTargetHumidity = 50.0
)

// featuresStep toggles the optional features legal for the chosen system
// type. Only legal toggles are offered. Flipping a toggle off removes the
// feature's previously collected detail fields so they can never go stale.
type featuresStep struct{}

func (featuresStep) ID() models.StepID { return models.StepFeatures }

func (featuresStep) Schema(ws WorkingState, _ models.Mode) schema.Descriptor {
	st := ws.SystemType()
	var fields []schema.Field
	for _, f := range features.Legal(st) {
		toggle := models.ToggleKey(f)
		// Edit and reconfigure passes never persisted toggles, so prefill
		// from the presence of the feature's data instead.
		def := any(ws.Bool(toggle))
		if _, stored := ws[toggle]; !stored && featureDataPresent(ws, f) {
			def = true
		}
		fields = append(fields, schema.Field{
			Name:    toggle,
			Type:    schema.TypeBool,
			Widget:  schema.WidgetToggle,
			Default: def,
		})
	}
	return schema.Descriptor{Fields: fields}
}

func (featuresStep) Apply(ws WorkingState, _ models.Mode, values map[string]any) (WorkingState, error) {
	st := ws.SystemType()
	out, err := ws.MergeChecked(values)
	if err != nil {
		return ws, err
	}
	for _, f := range features.Legal(st) {
		// Only an explicitly submitted "off" purges collected data. An
		// omitted toggle merges nothing, so a partial resubmission in edit
		// or reconfigure mode keeps what earlier passes collected.
		enabled, submitted := values[models.ToggleKey(f)].(bool)
		if submitted && !enabled && featureDataPresent(out, f) {
			out = purgeFeature(out, f)
			// Keep the explicit "off" so downstream orchestration and the
			// next schema prefill see the user's choice.
			out[models.ToggleKey(f)] = false
		}
	}
	return out, nil
}

// floorHeatingStep configures the floor temperature sensor and its limits.
type floorHeatingStep struct{}

func (floorHeatingStep) ID() models.StepID { return models.StepFloorHeating }

func (floorHeatingStep) Schema(ws WorkingState, _ models.Mode) schema.Descriptor {
	return schema.Descriptor{Fields: withDefaults([]schema.Field{
		{Name: models.ConfigKeyFloorSensor, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"sensor"}},
		{Name: models.ConfigKeyMinFloorTemp, Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Default: defaultMinFloorTemp, Min: schema.FloatPtr(0.0), Max: schema.FloatPtr(35.0)},
		{Name: models.ConfigKeyMaxFloorTemp, Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Default: defaultMaxFloorTemp, Min: schema.FloatPtr(5.0), Max: schema.FloatPtr(40.0)},
	}, ws)}
}

func (floorHeatingStep) Apply(ws WorkingState, _ models.Mode, values map[string]any) (WorkingState, error) {
	return ws.MergeChecked(values)
}

// fanStep configures the fan switch and its behavior options.
type fanStep struct{}

func (fanStep) ID() models.StepID { return models.StepFan }

func (fanStep) Schema(ws WorkingState, _ models.Mode) schema.Descriptor {
	return schema.Descriptor{Fields: withDefaults([]schema.Field{
		{Name: models.ConfigKeyFan, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"switch", "input_boolean"}},
		{Name: models.ConfigKeyFanOnWithAC, Type: schema.TypeBool, Widget: schema.WidgetToggle, Default: false},
		{Name: models.ConfigKeyFanAirOutside, Type: schema.TypeBool, Widget: schema.WidgetToggle, Default: false},
		{Name: models.ConfigKeyFanHotTolerance, Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Min: schema.FloatPtr(0.0), Max: schema.FloatPtr(10.0)},
	}, ws)}
}

func (fanStep) Apply(ws WorkingState, _ models.Mode, values map[string]any) (WorkingState, error) {
	return ws.MergeChecked(values)
}

// humidityStep configures the humidity sensor, target, and dryer control.
type humidityStep struct{}

func (humidityStep) ID() models.StepID { return models.StepHumidity }

func (humidityStep) Schema(ws WorkingState, _ models.Mode) schema.Descriptor {
	return schema.Descriptor{Fields: withDefaults([]schema.Field{
		{Name: models.ConfigKeyHumiditySensor, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Required: true, Domains: []string{"sensor"}},
		{Name: models.ConfigKeyTargetHumidity, Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Default: defaultTargetHumidity, Min: schema.FloatPtr(20.0), Max: schema.FloatPtr(80.0)},
		{Name: models.ConfigKeyDryer, Type: schema.TypeEntityID, Widget: schema.WidgetEntityPicker, Domains: []string{"switch", "input_boolean"}},
		{Name: models.ConfigKeyMoistTolerance, Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Min: schema.FloatPtr(0.0), Max: schema.FloatPtr(20.0)},
		{Name: models.ConfigKeyDryTolerance, Type: schema.TypeFloat, Widget: schema.WidgetNumberBox, Min: schema.FloatPtr(0.0), Max: schema.FloatPtr(20.0)},
	}, ws)}
}

func (humidityStep) Apply(ws WorkingState, _ models.Mode, values map[string]any) (WorkingState, error) {
	return ws.MergeChecked(values)
}
