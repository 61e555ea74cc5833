// Package validation holds request validators for the API layer. Each
// validator mirrors the fields it checks in a small request struct and
// returns a slice of field errors; an empty slice means valid.
package validation

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
