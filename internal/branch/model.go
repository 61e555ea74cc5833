package branch

import (
	"time"

	"github.com/google/uuid"
)

// Branch represents a row in the branches table. Branches are the top-level
// organizational unit; deactivating one removes it (and everything scoped to
// it) from every non-admin view without destroying data.
type Branch struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedBy   uuid.UUID
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilter holds optional filters and pagination for listing branches.
type ListFilter struct {
	ID     *uuid.UUID // restrict to a single branch (non-admin callers)
	Search *string    // case-insensitive match on name or description
	Page   int        // default 1
	Limit  int        // default 20
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Branches []Branch
	Total    int
	Page     int
	Limit    int
}

// UpdateFields holds updatable fields on a branch record. Nil fields are not updated.
type UpdateFields struct {
	Name        *string
	Description *string
}
