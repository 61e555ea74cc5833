package validation

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/sheetdesk/sheetdesk/internal/identity"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)

// CreateUserRequest mirrors the fields needed for create user validation.
type CreateUserRequest struct {
	Username string
	Email    string
	Password string
	Role     string
	BranchID string
	TeamID   string
}

// ValidateCreateUserRequest validates the fields of a create user request.
func ValidateCreateUserRequest(req CreateUserRequest) []FieldError {
	var errs []FieldError

	username := strings.TrimSpace(req.Username)
	if username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	} else if !usernameRegex.MatchString(username) {
		errs = append(errs, FieldError{Field: "username", Message: "username must be 3-50 characters of letters, digits, dot, dash, or underscore"})
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	if req.Password != "" && len(req.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	if req.Role == "" {
		errs = append(errs, FieldError{Field: "role", Message: "role is required"})
	} else if _, err := identity.ParseRole(req.Role); err != nil {
		errs = append(errs, FieldError{Field: "role", Message: "role must be one of admin, manager, team_lead, user, agent"})
	}

	if req.BranchID != "" {
		if _, err := uuid.Parse(req.BranchID); err != nil {
			errs = append(errs, FieldError{Field: "branch_id", Message: "branch_id must be a valid UUID"})
		}
	}

	if req.TeamID != "" {
		if _, err := uuid.Parse(req.TeamID); err != nil {
			errs = append(errs, FieldError{Field: "team_id", Message: "team_id must be a valid UUID"})
		}
	}

	return errs
}

// UpdateUserRequest mirrors the fields needed for update user validation.
// Nil fields are absent from the request and skipped.
type UpdateUserRequest struct {
	Role     *string
	BranchID *string
	TeamID   *string
}

// ValidateUpdateUserRequest validates the fields of an update user request.
func ValidateUpdateUserRequest(req UpdateUserRequest) []FieldError {
	var errs []FieldError

	if req.Role != nil {
		if _, err := identity.ParseRole(*req.Role); err != nil {
			errs = append(errs, FieldError{Field: "role", Message: "role must be one of admin, manager, team_lead, user, agent"})
		}
	}

	if req.BranchID != nil && *req.BranchID != "" {
		if _, err := uuid.Parse(*req.BranchID); err != nil {
			errs = append(errs, FieldError{Field: "branch_id", Message: "branch_id must be a valid UUID"})
		}
	}

	if req.TeamID != nil && *req.TeamID != "" {
		if _, err := uuid.Parse(*req.TeamID); err != nil {
			errs = append(errs, FieldError{Field: "team_id", Message: "team_id must be a valid UUID"})
		}
	}

	return errs
}
