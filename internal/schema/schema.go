// Package schema describes the input fields of wizard steps for an external
// form layer. Descriptors declare field names, value types, and UI widget
// hints only; the flow engine never interprets widget hints.
package schema

// FieldType names the value type a field carries after validation.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeEntityID FieldType = "entity_id"
	TypeFloat    FieldType = "float"
	TypeBool     FieldType = "bool"
	TypeDuration FieldType = "duration"
	TypeSelect   FieldType = "select"
	TypeMulti    FieldType = "multi_select"
	TypeList     FieldType = "list"
)

// Widget hints for the form layer. Opaque to the engine.
const (
	WidgetText         = "text"
	WidgetEntityPicker = "entity_picker"
	WidgetNumberBox    = "number_box"
	WidgetToggle       = "toggle"
	WidgetDuration     = "duration"
	WidgetDropdown     = "dropdown"
	WidgetChecklist    = "checklist"
)

// Field describes one input of a wizard step.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Widget   string    `json:"widget,omitempty"`
	Required bool      `json:"required,omitempty"`
	Options  []string  `json:"options,omitempty"` // for select/multi_select
	Default  any       `json:"default,omitempty"` // prefilled current value
	Min      *float64  `json:"min,omitempty"`
	Max      *float64  `json:"max,omitempty"`
	Domains  []string  `json:"domains,omitempty"` // allowed entity domains for entity_id fields
}

// Descriptor is the full field set of one step.
type Descriptor struct {
	Fields []Field `json:"fields"`
}

// Names returns the field names in declaration order.
func (d Descriptor) Names() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// Find returns the field with the given name.
func (d Descriptor) Find(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FloatPtr is a helper for Min/Max bounds.
func FloatPtr(v float64) *float64 { return &v }
