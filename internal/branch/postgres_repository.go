package branch

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

// Create inserts a new branch record.
func (r *PostgresRepository) Create(ctx context.Context, b *Branch) error {
	query := `
		INSERT INTO branches (name, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, is_active, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, b.Name, b.Description, b.CreatedBy).
		Scan(&b.ID, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting branch: %w", err)
	}

	return nil
}

// GetByID retrieves a single active branch by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Branch, error) {
	query := `
		SELECT id, name, description, created_by, is_active, created_at, updated_at
		FROM branches
		WHERE id = $1 AND is_active = TRUE`

	return r.scanOne(ctx, query, id)
}

// List retrieves a paginated, filtered list of active branches.
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

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "is_active = TRUE")

	if filter.ID != nil {
		conditions = append(conditions, fmt.Sprintf("id = $%d", argIdx))
		args = append(args, *filter.ID)
		argIdx++
	}
	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM branches %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting branches: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit

	dataQuery := fmt.Sprintf(`
		SELECT id, name, description, created_by, is_active, created_at, updated_at
		FROM branches
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	var branches []Branch
	for rows.Next() {
		var b Branch
		err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.CreatedBy, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning branch row: %w", err)
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating branch rows: %w", err)
	}

	if branches == nil {
		branches = []Branch{}
	}

	return &ListResult{
		Branches: branches,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}, nil
}

// Update modifies name/description on an active branch.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Branch, error) {
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

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE branches
		SET %s
		WHERE id = $%d AND is_active = TRUE
		RETURNING id, name, description, created_by, is_active, created_at, updated_at`,
		strings.Join(setClauses, ", "), argIdx)

	return r.scanOne(ctx, query, args...)
}

// Deactivate soft-deletes a branch by clearing is_active.
func (r *PostgresRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE branches
		SET is_active = FALSE, updated_at = $1
		WHERE id = $2 AND is_active = TRUE`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivating branch: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// scanOne scans a single Branch row from a query. Returns ErrNotFound if no rows.
func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Branch, error) {
	var b Branch
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&b.ID, &b.Name, &b.Description, &b.CreatedBy, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning branch row: %w", err)
	}
	return &b, nil
}
