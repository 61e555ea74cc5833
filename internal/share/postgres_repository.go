package share

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

// Upsert inserts or overwrites the grant for (sheet, user) in one conditional
// statement, so concurrent shares of the same pair cannot create duplicates.
func (r *PostgresRepository) Upsert(ctx context.Context, s *Share) error {
	query := `
		INSERT INTO sheet_shares (sheet_id, shared_with_user_id, permission_level, shared_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (sheet_id, shared_with_user_id) DO UPDATE
		SET permission_level = EXCLUDED.permission_level,
		    expires_at = EXCLUDED.expires_at
		RETURNING id, shared_by, shared_at`

	err := r.pool.QueryRow(ctx, query,
		s.SheetID,
		s.SharedWithUserID,
		string(s.Level),
		s.SharedBy,
		s.ExpiresAt,
	).Scan(&s.ID, &s.SharedBy, &s.SharedAt)
	if err != nil {
		return fmt.Errorf("upserting share: %w", err)
	}

	return nil
}

// GetForUser returns the grant for (sheetID, userID) regardless of expiry.
func (r *PostgresRepository) GetForUser(ctx context.Context, sheetID, userID uuid.UUID) (*Share, error) {
	query := `
		SELECT id, sheet_id, shared_with_user_id, permission_level, shared_by, shared_at, expires_at
		FROM sheet_shares
		WHERE sheet_id = $1 AND shared_with_user_id = $2`

	return r.scanOne(ctx, query, sheetID, userID)
}

// ListBySheet retrieves every grant on a sheet, newest first.
func (r *PostgresRepository) ListBySheet(ctx context.Context, sheetID uuid.UUID) ([]Share, error) {
	query := `
		SELECT id, sheet_id, shared_with_user_id, permission_level, shared_by, shared_at, expires_at
		FROM sheet_shares
		WHERE sheet_id = $1
		ORDER BY shared_at DESC`

	rows, err := r.pool.Query(ctx, query, sheetID)
	if err != nil {
		return nil, fmt.Errorf("listing shares: %w", err)
	}
	defer rows.Close()

	var shares []Share
	for rows.Next() {
		var s Share
		var level string
		err := rows.Scan(&s.ID, &s.SheetID, &s.SharedWithUserID, &level, &s.SharedBy, &s.SharedAt, &s.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("scanning share row: %w", err)
		}
		s.Level = Level(level)
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating share rows: %w", err)
	}

	if shares == nil {
		shares = []Share{}
	}

	return shares, nil
}

// UpdateLevel changes the permission level of an existing grant.
func (r *PostgresRepository) UpdateLevel(ctx context.Context, sheetID, userID uuid.UUID, level Level) (*Share, error) {
	query := `
		UPDATE sheet_shares
		SET permission_level = $1
		WHERE sheet_id = $2 AND shared_with_user_id = $3
		RETURNING id, sheet_id, shared_with_user_id, permission_level, shared_by, shared_at, expires_at`

	return r.scanOne(ctx, query, string(level), sheetID, userID)
}

// Delete removes the grant for (sheetID, userID), returning the removed row
// so callers can audit the revoked level.
func (r *PostgresRepository) Delete(ctx context.Context, sheetID, userID uuid.UUID) (*Share, error) {
	query := `
		DELETE FROM sheet_shares
		WHERE sheet_id = $1 AND shared_with_user_id = $2
		RETURNING id, sheet_id, shared_with_user_id, permission_level, shared_by, shared_at, expires_at`

	return r.scanOne(ctx, query, sheetID, userID)
}

// scanOne scans a single Share row from a query. Returns ErrNotFound if no rows.
func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Share, error) {
	var s Share
	var level string
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&s.ID, &s.SheetID, &s.SharedWithUserID, &level, &s.SharedBy, &s.SharedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning share row: %w", err)
	}
	s.Level = Level(level)
	return &s, nil
}
