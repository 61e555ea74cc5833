package cell

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no cell exists at the addressed key.
var ErrNotFound = errors.New("cell not found")

// Repository provides operations on the sheet_cells table. Each call touches
// a single addressed cell; nothing here scans whole sheets on the write path.
type Repository interface {
	// Upsert writes the cell at its (sheet, row, col) key in one conditional
	// statement: create-if-absent, otherwise overwrite value, data type, and
	// modifier in place. Reports whether a new row was created.
	Upsert(ctx context.Context, c *Cell) (created bool, err error)
	GetByKey(ctx context.Context, sheetID uuid.UUID, row, col int) (*Cell, error)
	// DeleteByKey removes the cell row at the key. Returns ErrNotFound when the
	// cell was already absent.
	DeleteByKey(ctx context.Context, sheetID uuid.UUID, row, col int) (*Cell, error)
	List(ctx context.Context, sheetID uuid.UUID, page, limit int) (*ListResult, error)
	// ListAll returns every cell of a sheet ordered by (row, col). Used by the
	// sheet detail endpoint, which returns the full grid.
	ListAll(ctx context.Context, sheetID uuid.UUID) ([]Cell, error)
}
