package cell

import (
	"time"

	"github.com/google/uuid"
)

// Cell represents a row in the sheet_cells table. Storage is sparse: a cell
// row exists only while it holds a non-empty value, and the unique
// (sheet_id, row, col) key admits at most one live row per grid position.
type Cell struct {
	ID             uuid.UUID
	SheetID        uuid.UUID
	Row            int
	Col            int
	Value          string
	DataType       string
	LastModifiedBy *uuid.UUID
	LastModifiedAt time.Time
}

// ListResult holds one page of cells ordered by (row, col).
type ListResult struct {
	Cells []Cell
	Total int
	Page  int
	Limit int
}
