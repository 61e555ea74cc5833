package team

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a team record is not found or inactive.
var ErrNotFound = errors.New("team not found")

// ErrDuplicateName is returned when a team with the same name already exists
// within the branch.
var ErrDuplicateName = errors.New("team name already exists in branch")

// Repository provides CRUD operations on the teams table.
type Repository interface {
	Create(ctx context.Context, t *Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]Team, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
