package branch

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a branch record is not found or inactive.
var ErrNotFound = errors.New("branch not found")

// Repository provides CRUD operations on the branches table.
type Repository interface {
	Create(ctx context.Context, b *Branch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Branch, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
