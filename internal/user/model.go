package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/sheetdesk/sheetdesk/internal/identity"
)

// User represents a row in the users table.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	Role         identity.Role
	BranchID     *uuid.UUID
	TeamID       *uuid.UUID
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity converts a user row into the actor identity consumed by the
// access engine and handlers.
func (u *User) Identity() identity.Identity {
	return identity.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		BranchID: u.BranchID,
		TeamID:   u.TeamID,
	}
}

// DisplayName returns the user's first name when set, falling back to the
// username. Used for notification and email copy.
func (u *User) DisplayName() string {
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	return u.Username
}

// ListFilter holds optional filters and pagination for listing users.
type ListFilter struct {
	BranchID *uuid.UUID // restrict to one branch (manager scope)
	TeamID   *uuid.UUID // restrict to one team (team lead scope)
	Search   *string    // case-insensitive match on username/email/first/last name
	Page     int        // default 1
	Limit    int        // default 20
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Users []User
	Total int
	Page  int
	Limit int
}

// UpdateFields holds updatable fields on a user record. Nil fields are not updated.
type UpdateFields struct {
	FirstName *string
	LastName  *string
	Role      *identity.Role
	BranchID  **uuid.UUID // outer nil: unchanged; inner nil: clear assignment
	TeamID    **uuid.UUID
}
