package models

import "fmt"

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateRecordEnvelope(r *RecordEnvelope) error {
	if r == nil {
		return &ValidationError{
			Field:   "envelope",
			Message: "record envelope cannot be nil",
		}
	}

	if r.ID == "" {
		return &ValidationError{
			Field:   "id",
			Message: "record ID is required",
		}
	}

	if r.Environment == "" {
		return &ValidationError{
			Field:   "environment",
			Message: "record environment is required",
		}
	}

	if r.Timestamp.IsZero() {
		return &ValidationError{
			Field:   "timestamp",
			Message: "record timestamp is required",
		}
	}

	seen := make(map[string]struct{}, len(r.Fields))
	for _, f := range r.Fields {
		if f.Name == "" {
			return &ValidationError{
				Field:   "fields",
				Message: "field names cannot be empty",
			}
		}
		if _, dup := seen[f.Name]; dup {
			return &ValidationError{
				Field:   "fields",
				Message: fmt.Sprintf("duplicate field name '%s'", f.Name),
			}
		}
		seen[f.Name] = struct{}{}
	}

	return nil
}
