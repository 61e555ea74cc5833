package validation

import (
	"time"

	"github.com/google/uuid"

	"github.com/sheetdesk/sheetdesk/internal/share"
)

// CreateShareRequest mirrors the fields needed for create share validation.
type CreateShareRequest struct {
	SharedWithUserID string
	PermissionLevel  string
	ExpiresAt        *time.Time
	Now              time.Time
}

// ValidateCreateShareRequest validates the fields of a create share request.
func ValidateCreateShareRequest(req CreateShareRequest) []FieldError {
	var errs []FieldError

	if req.SharedWithUserID == "" {
		errs = append(errs, FieldError{Field: "shared_with_user_id", Message: "shared_with_user_id is required"})
	} else if _, err := uuid.Parse(req.SharedWithUserID); err != nil {
		errs = append(errs, FieldError{Field: "shared_with_user_id", Message: "shared_with_user_id must be a valid UUID"})
	}

	if req.PermissionLevel == "" {
		errs = append(errs, FieldError{Field: "permission_level", Message: "permission_level is required"})
	} else if _, err := share.ParseLevel(req.PermissionLevel); err != nil {
		errs = append(errs, FieldError{Field: "permission_level", Message: "permission_level must be \"view\" or \"edit\""})
	}

	if req.ExpiresAt != nil && !req.ExpiresAt.After(req.Now) {
		errs = append(errs, FieldError{Field: "expires_at", Message: "expires_at must be in the future"})
	}

	return errs
}

// UpdateShareRequest mirrors the fields needed for update share validation.
type UpdateShareRequest struct {
	PermissionLevel string
}

// ValidateUpdateShareRequest validates the fields of an update share request.
func ValidateUpdateShareRequest(req UpdateShareRequest) []FieldError {
	var errs []FieldError

	if req.PermissionLevel == "" {
		errs = append(errs, FieldError{Field: "permission_level", Message: "permission_level is required"})
	} else if _, err := share.ParseLevel(req.PermissionLevel); err != nil {
		errs = append(errs, FieldError{Field: "permission_level", Message: "permission_level must be \"view\" or \"edit\""})
	}

	return errs
}
