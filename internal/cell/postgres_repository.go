package cell

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Upsert writes the cell in a single INSERT ... ON CONFLICT statement, so
// concurrent saves on the same key cannot race into duplicate rows; the last
// writer wins. The xmax = 0 check distinguishes a fresh insert from an
// overwrite of an existing row.
func (r *PostgresRepository) Upsert(ctx context.Context, c *Cell) (bool, error) {
	query := `
		INSERT INTO sheet_cells (sheet_id, "row", col, value, data_type, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sheet_id, "row", col) DO UPDATE
		SET value = EXCLUDED.value,
		    data_type = EXCLUDED.data_type,
		    last_modified_by = EXCLUDED.last_modified_by,
		    last_modified_at = NOW()
		RETURNING id, last_modified_at, (xmax = 0) AS inserted`

	var created bool
	err := r.pool.QueryRow(ctx, query,
		c.SheetID,
		c.Row,
		c.Col,
		c.Value,
		c.DataType,
		c.LastModifiedBy,
	).Scan(&c.ID, &c.LastModifiedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upserting cell: %w", err)
	}

	return created, nil
}

// GetByKey retrieves the cell at (sheetID, row, col).
func (r *PostgresRepository) GetByKey(ctx context.Context, sheetID uuid.UUID, row, col int) (*Cell, error) {
	query := `
		SELECT id, sheet_id, "row", col, value, data_type, last_modified_by, last_modified_at
		FROM sheet_cells
		WHERE sheet_id = $1 AND "row" = $2 AND col = $3`

	return r.scanOne(ctx, query, sheetID, row, col)
}

// DeleteByKey removes the cell row at the key, returning the removed cell so
// callers can audit the prior value.
func (r *PostgresRepository) DeleteByKey(ctx context.Context, sheetID uuid.UUID, row, col int) (*Cell, error) {
	query := `
		DELETE FROM sheet_cells
		WHERE sheet_id = $1 AND "row" = $2 AND col = $3
		RETURNING id, sheet_id, "row", col, value, data_type, last_modified_by, last_modified_at`

	return r.scanOne(ctx, query, sheetID, row, col)
}

// List retrieves one page of a sheet's cells ordered by (row, col).
func (r *PostgresRepository) List(ctx context.Context, sheetID uuid.UUID, page, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sheet_cells WHERE sheet_id = $1`, sheetID).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting cells: %w", err)
	}

	offset := (page - 1) * limit

	query := `
		SELECT id, sheet_id, "row", col, value, data_type, last_modified_by, last_modified_at
		FROM sheet_cells
		WHERE sheet_id = $1
		ORDER BY "row" ASC, col ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, sheetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing cells: %w", err)
	}
	defer rows.Close()

	cells, err := collectCells(rows)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Cells: cells,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// ListAll returns every cell of a sheet ordered by (row, col).
func (r *PostgresRepository) ListAll(ctx context.Context, sheetID uuid.UUID) ([]Cell, error) {
	query := `
		SELECT id, sheet_id, "row", col, value, data_type, last_modified_by, last_modified_at
		FROM sheet_cells
		WHERE sheet_id = $1
		ORDER BY "row" ASC, col ASC`

	rows, err := r.pool.Query(ctx, query, sheetID)
	if err != nil {
		return nil, fmt.Errorf("listing cells: %w", err)
	}
	defer rows.Close()

	return collectCells(rows)
}

func collectCells(rows pgx.Rows) ([]Cell, error) {
	var cells []Cell
	for rows.Next() {
		var c Cell
		err := rows.Scan(&c.ID, &c.SheetID, &c.Row, &c.Col, &c.Value, &c.DataType, &c.LastModifiedBy, &c.LastModifiedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning cell row: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cell rows: %w", err)
	}

	if cells == nil {
		cells = []Cell{}
	}

	return cells, nil
}

// scanOne scans a single Cell row from a query. Returns ErrNotFound if no rows.
func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Cell, error) {
	var c Cell
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.SheetID, &c.Row, &c.Col, &c.Value, &c.DataType, &c.LastModifiedBy, &c.LastModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning cell row: %w", err)
	}
	return &c, nil
}
