package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

const sheetColumns = `s.id, s.name, s.description, s.branch_id, s.team_id, s.created_by,
	s.rows, s.columns, s.is_archived, s.created_at, s.updated_at`

// Create inserts a new sheet record, applying default dimensions when unset.
func (r *PostgresRepository) Create(ctx context.Context, s *Sheet) error {
	if s.Rows <= 0 {
		s.Rows = DefaultRows
	}
	if s.Columns <= 0 {
		s.Columns = DefaultColumns
	}

	query := `
		INSERT INTO sheets (name, description, branch_id, team_id, created_by, rows, columns)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_archived, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		s.Name,
		s.Description,
		s.BranchID,
		s.TeamID,
		s.CreatedBy,
		s.Rows,
		s.Columns,
	).Scan(&s.ID, &s.IsArchived, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting sheet: %w", err)
	}

	return nil
}

// GetByID retrieves a single sheet by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Sheet, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sheets s
		WHERE s.id = $1`, sheetColumns)

	return r.scanOne(ctx, query, id)
}

// List retrieves a paginated, scope-filtered list of sheets, newest first.
// Branch and team scopes only surface sheets whose anchor is still active, so
// deactivating a branch empties the scoped views while admins keep seeing the
// sheets. Share scope only counts grants that have not expired.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	var joins []string
	var conditions []string
	var args []any
	argIdx := 1

	if filter.BranchID != nil {
		joins = append(joins, "JOIN branches b ON b.id = s.branch_id AND b.is_active = TRUE")
		conditions = append(conditions, fmt.Sprintf("s.branch_id = $%d", argIdx))
		args = append(args, *filter.BranchID)
		argIdx++
	}
	if filter.TeamID != nil {
		joins = append(joins, "JOIN teams t ON t.id = s.team_id AND t.is_active = TRUE")
		conditions = append(conditions, fmt.Sprintf("s.team_id = $%d", argIdx))
		args = append(args, *filter.TeamID)
		argIdx++
	}
	if filter.SharedWithUserID != nil {
		joins = append(joins, "JOIN sheet_shares sh ON sh.sheet_id = s.id")
		conditions = append(conditions, fmt.Sprintf(
			"sh.shared_with_user_id = $%d AND (sh.expires_at IS NULL OR sh.expires_at > $%d)",
			argIdx, argIdx+1))
		args = append(args, *filter.SharedWithUserID, time.Now().UTC())
		argIdx += 2
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "s.is_archived = FALSE")
	}
	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(s.name ILIKE $%d OR s.description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	joinClause := strings.Join(joins, "\n\t\t")
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT s.id) FROM sheets s %s %s", joinClause, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting sheets: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit

	dataQuery := fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM sheets s
		%s
		%s
		ORDER BY s.created_at DESC
		LIMIT $%d OFFSET $%d`, sheetColumns, joinClause, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sheets: %w", err)
	}
	defer rows.Close()

	var sheets []Sheet
	for rows.Next() {
		var s Sheet
		err := rows.Scan(
			&s.ID, &s.Name, &s.Description, &s.BranchID, &s.TeamID, &s.CreatedBy,
			&s.Rows, &s.Columns, &s.IsArchived, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning sheet row: %w", err)
		}
		sheets = append(sheets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sheet rows: %w", err)
	}

	if sheets == nil {
		sheets = []Sheet{}
	}

	return &ListResult{
		Sheets: sheets,
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}, nil
}

// Update modifies name/description/is_archived on a sheet.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Sheet, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}
	if fields.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *fields.Description)
		argIdx++
	}
	if fields.IsArchived != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_archived = $%d", argIdx))
		args = append(args, *fields.IsArchived)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE sheets s
		SET %s
		WHERE s.id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, sheetColumns)

	return r.scanOne(ctx, query, args...)
}

// Delete hard-deletes a sheet; cells and shares cascade via foreign keys.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM sheets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting sheet: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// scanOne scans a single Sheet row from a query. Returns ErrNotFound if no rows.
func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Sheet, error) {
	var s Sheet
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.Name, &s.Description, &s.BranchID, &s.TeamID, &s.CreatedBy,
		&s.Rows, &s.Columns, &s.IsArchived, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning sheet row: %w", err)
	}
	return &s, nil
}
