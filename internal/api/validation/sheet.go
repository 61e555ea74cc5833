package validation

import (
	"strings"

	"github.com/google/uuid"
)

// CreateSheetRequest mirrors the fields needed for create sheet validation.
type CreateSheetRequest struct {
	Name        string
	Description string
	BranchID    string
	TeamID      string
	Rows        *int
	Columns     *int
}

// ValidateCreateSheetRequest validates the fields of a create sheet request.
func ValidateCreateSheetRequest(req CreateSheetRequest) []FieldError {
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

	if req.BranchID == "" {
		errs = append(errs, FieldError{Field: "branch_id", Message: "branch_id is required"})
	} else if _, err := uuid.Parse(req.BranchID); err != nil {
		errs = append(errs, FieldError{Field: "branch_id", Message: "branch_id must be a valid UUID"})
	}

	if req.TeamID != "" {
		if _, err := uuid.Parse(req.TeamID); err != nil {
			errs = append(errs, FieldError{Field: "team_id", Message: "team_id must be a valid UUID"})
		}
	}

	if req.Rows != nil && (*req.Rows < 1 || *req.Rows > 10000) {
		errs = append(errs, FieldError{Field: "rows", Message: "rows must be between 1 and 10000"})
	}

	if req.Columns != nil && (*req.Columns < 1 || *req.Columns > 256) {
		errs = append(errs, FieldError{Field: "columns", Message: "columns must be between 1 and 256"})
	}

	return errs
}

// UpdateSheetRequest mirrors the fields needed for update sheet validation.
type UpdateSheetRequest struct {
	Name        *string
	Description *string
}

// ValidateUpdateSheetRequest validates the fields of an update sheet request.
func ValidateUpdateSheetRequest(req UpdateSheetRequest) []FieldError {
	var errs []FieldError

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			errs = append(errs, FieldError{Field: "name", Message: "name must not be empty"})
		} else if len(name) > 255 {
			errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
		}
	}

	if req.Description != nil && len(*req.Description) > 1000 {
		errs = append(errs, FieldError{Field: "description", Message: "description must be at most 1000 characters"})
	}

	return errs
}
