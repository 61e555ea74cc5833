package sheet

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRows and DefaultColumns are the grid dimensions applied when a sheet
// is created without explicit dimensions. Dimensions are fixed at creation.
const (
	DefaultRows    = 100
	DefaultColumns = 26
)

// Sheet represents a row in the sheets table. Every sheet is anchored to a
// branch; a team optionally narrows that scope. The branch anchor never
// changes after creation.
type Sheet struct {
	ID          uuid.UUID
	Name        string
	Description string
	BranchID    uuid.UUID
	TeamID      *uuid.UUID
	CreatedBy   uuid.UUID
	Rows        int
	Columns     int
	IsArchived  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilter holds the scope restriction, optional filters, and pagination
// for listing sheets. Exactly one of BranchID / TeamID / SharedWithUserID is
// set for scoped callers; all three are nil for admins.
type ListFilter struct {
	BranchID         *uuid.UUID // manager scope: sheets of this (active) branch
	TeamID           *uuid.UUID // team lead scope: sheets of this (active) team
	SharedWithUserID *uuid.UUID // user/agent scope: sheets with a live share for this user
	Search           *string    // case-insensitive match on name or description
	IncludeArchived  bool
	Page             int // default 1
	Limit            int // default 20
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Sheets []Sheet
	Total  int
	Page   int
	Limit  int
}

// UpdateFields holds updatable fields on a sheet record. Nil fields are not updated.
type UpdateFields struct {
	Name        *string
	Description *string
	IsArchived  *bool
}
