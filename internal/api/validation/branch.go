package validation

import "strings"

// BranchRequest mirrors the fields needed for create/update branch validation.
type BranchRequest struct {
	Name        string
	Description string
}

// ValidateBranchRequest validates the fields of a create or update branch request.
func ValidateBranchRequest(req BranchRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	if len(req.Description) > 1000 {
		errs = append(errs, FieldError{Field: "description", Message: "description must be at most 1000 characters"})
	}

	return errs
}
