package flow

import (
	"fmt"
	"log/slog"

	"github.com/swingerman/dual-thermostat-config/internal/models"
	"github.com/swingerman/dual-thermostat-config/internal/schema"
	"github.com/swingerman/dual-thermostat-config/internal/validate"
)

// stepHandler is the contract every wizard step implements. Schema declares
// the step's own field set with pre-filled defaults; Apply merges validated
// values into the working state and performs step-specific normalization.
type stepHandler interface {
	ID() models.StepID
	Schema(ws WorkingState, mode models.Mode) schema.Descriptor
	Apply(ws WorkingState, mode models.Mode, values map[string]any) (WorkingState, error)
}

// dispatch is the closed StepID -> handler table. Unknown step identifiers
// are rejected by Execute; there is no reflective method lookup.
var dispatch = buildDispatch()

func buildDispatch() map[models.StepID]stepHandler {
	handlers := []stepHandler{
		systemTypeStep{},
		coreSettingsStep{id: models.StepBasicSimpleHeater, systemType: models.SystemTypeSimpleHeater},
		coreSettingsStep{id: models.StepBasicACOnly, systemType: models.SystemTypeACOnly},
		coreSettingsStep{id: models.StepBasicHeaterCooler, systemType: models.SystemTypeHeaterCooler},
		coreSettingsStep{id: models.StepBasicHeatPump, systemType: models.SystemTypeHeatPump},
		coreSettingsStep{id: models.StepBasicDualStage, systemType: models.SystemTypeDualStage},
		featuresStep{},
		floorHeatingStep{},
		fanStep{},
		humidityStep{},
		openingsSelectionStep{},
		openingsDetailStep{},
		presetsSelectionStep{},
		presetsDetailStep{},
	}
	table := make(map[models.StepID]stepHandler, len(handlers))
	for _, h := range handlers {
		table[h.ID()] = h
	}
	return table
}

// StepSchema returns the field descriptor for a step with defaults filled
// from the working state.
func StepSchema(step models.StepID, ws WorkingState, mode models.Mode) (schema.Descriptor, error) {
	h, ok := dispatch[step]
	if !ok {
		return schema.Descriptor{}, fmt.Errorf("%w: %s", models.ErrUnknownStep, step)
	}
	return h.Schema(ws, mode), nil
}

// Execute validates one step submission and merges it into the working
// state. Raw input is narrowed to the step's own declared fields first, so a
// step can never store unrelated keys. On validation failure the original
// state is returned unchanged together with the per-field errors; on success
// the merged state is returned.
func Execute(step models.StepID, raw map[string]any, ws WorkingState, mode models.Mode) (WorkingState, models.ValidationErrors, error) {
	h, ok := dispatch[step]
	if !ok {
		slog.Error("Execute: unknown step", "step", step)
		return ws, nil, fmt.Errorf("%w: %s", models.ErrUnknownStep, step)
	}

	desc := h.Schema(ws, mode)
	values := make(map[string]any, len(desc.Fields))
	errs := make(models.ValidationErrors)

	for _, field := range desc.Fields {
		rawValue, present := raw[field.Name]
		if !present {
			if field.Required {
				if _, already := ws[field.Name]; already {
					// Required fields already collected in a prior pass keep
					// their value when the form omits them.
					continue
				}
				errs[field.Name] = models.FieldErrorRequired
			}
			continue
		}
		typed, kind := validate.Field(field, rawValue)
		if kind != "" {
			errs[field.Name] = kind
			continue
		}
		if typed == nil {
			continue
		}
		values[field.Name] = typed
	}

	if len(errs) > 0 {
		slog.Warn("Execute: step submission rejected", "step", step, "field_errors", len(errs))
		return ws, errs, nil
	}

	merged, err := h.Apply(ws, mode, values)
	if err != nil {
		slog.Error("Execute: step apply failed", "step", step, "error", err)
		return ws, nil, err
	}
	slog.Debug("Execute: step accepted", "step", step, "merged_keys", len(values))
	return merged, nil, nil
}

// withDefaults fills each field's Default from the working state, preferring
// an already-collected value over the field's static default.
func withDefaults(fields []schema.Field, ws WorkingState) []schema.Field {
	out := make([]schema.Field, len(fields))
	copy(out, fields)
	for i := range out {
		if v, ok := ws[out[i].Name]; ok {
			out[i].Default = v
		}
	}
	return out
}
