package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/edulog/workload-api/internal/models"
	appErrors "github.com/edulog/workload-api/pkg/errors"
)

// ValidateDetails checks raw user input against the schema of the given
// activity type and returns a schema-shaped payload. Input keys that are not
// part of the schema are dropped, so switching activity type mid-form cannot
// leak fields across types. The returned FieldErrors is keyed by field name;
// a non-nil error means the type itself is unknown.
func ValidateDetails(t models.ActivityType, raw map[string]interface{}) (models.DetailPayload, models.FieldErrors, error) {
	schema, ok := models.SchemaFor(t)
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrSchemaUnknown, fmt.Sprintf("unknown activity type %q", t))
	}

	payload := models.DetailPayload{}
	fieldErrs := models.FieldErrors{}

	for _, field := range schema.Fields {
		value, present := raw[field.Name]
		if !present || isEmptyValue(value) {
			if field.Kind == models.FieldEnum && field.Default != "" {
				payload[field.Name] = field.Default
				continue
			}
			if field.Required {
				fieldErrs[field.Name] = fmt.Sprintf("%s is required", field.Label)
			}
			continue
		}

		coerced, err := coerceField(field, value)
		if err != nil {
			fieldErrs[field.Name] = err.Error()
			continue
		}
		payload[field.Name] = coerced
	}

	if !fieldErrs.Empty() {
		return nil, fieldErrs, nil
	}
	return payload, nil, nil
}

func coerceField(field models.FieldDef, value interface{}) (interface{}, error) {
	switch field.Kind {
	case models.FieldText, models.FieldLongText:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be text", field.Label)
		}
		return strings.TrimSpace(s), nil

	case models.FieldInteger:
		n, err := coerceInt(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number", field.Label)
		}
		if n < 0 {
			return nil, fmt.Errorf("%s must not be negative", field.Label)
		}
		return n, nil

	case models.FieldDate:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD)", field.Label)
		}
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD)", field.Label)
		}
		return parsed.Format("2006-01-02"), nil

	case models.FieldEnum:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be one of: %s", field.Label, strings.Join(field.Choices, ", "))
		}
		s = strings.TrimSpace(s)
		for _, choice := range field.Choices {
			if s == choice {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%s must be one of: %s", field.Label, strings.Join(field.Choices, ", "))

	default:
		return nil, fmt.Errorf("%s has unsupported field kind %q", field.Label, field.Kind)
	}
}

// coerceInt accepts JSON numbers, native ints and numeric strings. Form
// clients submit counts as strings, so "5" must land as the integer 5.
func coerceInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("not a whole number")
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", value)
	}
}

func isEmptyValue(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
