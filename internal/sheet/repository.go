package sheet

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a sheet record is not found.
var ErrNotFound = errors.New("sheet not found")

// Repository provides CRUD operations on the sheets table.
type Repository interface {
	Create(ctx context.Context, s *Sheet) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sheet, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Sheet, error)
	// Delete hard-deletes a sheet; its cells and shares cascade away with it.
	Delete(ctx context.Context, id uuid.UUID) error
}
