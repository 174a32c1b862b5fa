// Package validate implements per-field validation for wizard submissions.
//
// It converts raw form values into typed values and classifies failures with
// models.FieldErrorKind. Numeric fields submitted as formatted strings by the
// form layer are coerced to numbers here, so string-typed numerics can never
// survive into the committed record.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/swingerman/dual-thermostat-config/internal/models"
	"github.com/swingerman/dual-thermostat-config/internal/schema"
)

// entityIDPattern matches "domain.object_id" entity identifiers.
var entityIDPattern = regexp.MustCompile(`^[a-z_]+\.[a-z0-9_]+$`)

// Field validates one raw value against its field descriptor and returns the
// typed value. A zero FieldErrorKind return means the value is valid.
func Field(f schema.Field, raw any) (any, models.FieldErrorKind) {
	if raw == nil || raw == "" {
		if f.Required {
			return nil, models.FieldErrorRequired
		}
		return nil, ""
	}

	switch f.Type {
	case schema.TypeString:
		s, ok := raw.(string)
		if !ok {
			s = fmt.Sprintf("%v", raw)
		}
		s = strings.TrimSpace(s)
		if s == "" && f.Required {
			return nil, models.FieldErrorRequired
		}
		return s, ""

	case schema.TypeEntityID:
		return EntityID(raw, f.Domains...)

	case schema.TypeFloat:
		v, kind := Float(raw)
		if kind != "" {
			return nil, kind
		}
		if f.Min != nil && v < *f.Min {
			return nil, models.FieldErrorOutOfRange
		}
		if f.Max != nil && v > *f.Max {
			return nil, models.FieldErrorOutOfRange
		}
		return v, ""

	case schema.TypeBool:
		return Bool(raw)

	case schema.TypeDuration:
		return DurationSeconds(raw)

	case schema.TypeSelect:
		s, ok := raw.(string)
		if !ok {
			return nil, models.FieldErrorInvalidOption
		}
		for _, opt := range f.Options {
			if opt == s {
				return s, ""
			}
		}
		return nil, models.FieldErrorInvalidOption

	case schema.TypeMulti:
		selected, kind := StringList(raw)
		if kind != "" {
			return nil, kind
		}
		for _, s := range selected {
			if len(f.Options) > 0 && !contains(f.Options, s) {
				return nil, models.FieldErrorInvalidOption
			}
		}
		return selected, ""

	case schema.TypeList:
		// Structured lists (openings entries) are normalized by the step handler.
		return raw, ""

	default:
		return raw, ""
	}
}

// EntityID validates a "domain.object_id" identifier, optionally restricted
// to a set of allowed domains.
func EntityID(raw any, domains ...string) (any, models.FieldErrorKind) {
	s, ok := raw.(string)
	if !ok {
		return nil, models.FieldErrorInvalidEntity
	}
	s = strings.TrimSpace(s)
	if !entityIDPattern.MatchString(s) {
		return nil, models.FieldErrorInvalidEntity
	}
	if len(domains) > 0 {
		domain := strings.SplitN(s, ".", 2)[0]
		if !contains(domains, domain) {
			return nil, models.FieldErrorInvalidEntity
		}
	}
	return s, ""
}

// Float coerces a raw value to float64. Accepts numeric JSON values and
// formatted strings like "0.5".
func Float(raw any) (float64, models.FieldErrorKind) {
	switch v := raw.(type) {
	case float64:
		return v, ""
	case float32:
		return float64(v), ""
	case int:
		return float64(v), ""
	case int64:
		return float64(v), ""
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, models.FieldErrorInvalidNumber
		}
		return f, ""
	default:
		return 0, models.FieldErrorInvalidNumber
	}
}

// Bool coerces a raw value to bool. Accepts booleans and the usual string forms.
func Bool(raw any) (any, models.FieldErrorKind) {
	switch v := raw.(type) {
	case bool:
		return v, ""
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true, ""
		case "false", "0", "no", "off":
			return false, ""
		}
	}
	return nil, models.FieldErrorInvalidOption
}

// DurationSeconds coerces a duration value to whole seconds. Accepts plain
// numbers, "mm:ss" strings, and Go duration strings like "5m".
func DurationSeconds(raw any) (any, models.FieldErrorKind) {
	switch v := raw.(type) {
	case float64:
		if v < 0 {
			return nil, models.FieldErrorInvalidDuration
		}
		return v, ""
	case int:
		if v < 0 {
			return nil, models.FieldErrorInvalidDuration
		}
		return float64(v), ""
	case string:
		s := strings.TrimSpace(v)
		if strings.Contains(s, ":") {
			parts := strings.SplitN(s, ":", 2)
			mins, err1 := strconv.Atoi(parts[0])
			secs, err2 := strconv.Atoi(parts[1])
			if err1 != nil || err2 != nil || mins < 0 || secs < 0 || secs > 59 {
				return nil, models.FieldErrorInvalidDuration
			}
			return float64(mins*60 + secs), ""
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if f < 0 {
				return nil, models.FieldErrorInvalidDuration
			}
			return f, ""
		}
		if d, err := parseGoDuration(s); err == nil {
			return d, ""
		}
		return nil, models.FieldErrorInvalidDuration
	default:
		return nil, models.FieldErrorInvalidDuration
	}
}

// StringList coerces a raw value to a []string.
func StringList(raw any) ([]string, models.FieldErrorKind) {
	switch v := raw.(type) {
	case []string:
		return v, ""
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, models.FieldErrorInvalidOption
			}
			out = append(out, s)
		}
		return out, ""
	default:
		return nil, models.FieldErrorInvalidOption
	}
}

func parseGoDuration(s string) (float64, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration")
	}
	return d.Seconds(), nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
