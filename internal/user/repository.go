package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sheetdesk/sheetdesk/internal/identity"
)

// ErrNotFound is returned when a user record is not found or inactive.
var ErrNotFound = errors.New("user not found")

// ErrDuplicate is returned when the username or email is already taken.
var ErrDuplicate = errors.New("username or email already exists")

// Repository provides operations on the users table. Every read is scoped to
// active users; deactivated accounts are invisible to the application.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	CountAll(ctx context.Context) (int, error)
	// ListIDsByBranchRoles returns the ids of active branch members holding any
	// of the given roles. Used for notification fan-out.
	ListIDsByBranchRoles(ctx context.Context, branchID uuid.UUID, roles []identity.Role) ([]uuid.UUID, error)
	// ListIDsByBranch returns the ids of all active members of a branch. Used
	// to scope a manager's activity-log view.
	ListIDsByBranch(ctx context.Context, branchID uuid.UUID) ([]uuid.UUID, error)
}
