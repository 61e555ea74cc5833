package share

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no share exists for the (sheet, user) pair.
var ErrNotFound = errors.New("share not found")

// Repository provides operations on the sheet_shares table.
type Repository interface {
	// Upsert creates the grant or, if one already exists for the (sheet, user)
	// pair, overwrites its level and expiry in place. The original granting
	// actor and timestamp are preserved on update.
	Upsert(ctx context.Context, s *Share) error
	// GetForUser returns the grant for (sheetID, userID) regardless of expiry;
	// callers decide liveness via Share.Active. Returns ErrNotFound when absent.
	GetForUser(ctx context.Context, sheetID, userID uuid.UUID) (*Share, error)
	ListBySheet(ctx context.Context, sheetID uuid.UUID) ([]Share, error)
	UpdateLevel(ctx context.Context, sheetID, userID uuid.UUID, level Level) (*Share, error)
	Delete(ctx context.Context, sheetID, userID uuid.UUID) (*Share, error)
}
