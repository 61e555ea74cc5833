package share

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Level is the permission level carried by a share grant.
type Level string

const (
	LevelView Level = "view"
	LevelEdit Level = "edit"
)

// ParseLevel converts a string into a Level, rejecting unknown values.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelView, LevelEdit:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown permission level %q", s)
}

// Share grants one user a permission level on one sheet, independent of
// branch/team scope. At most one share exists per (sheet, user); re-sharing
// overwrites the level and expiry in place.
type Share struct {
	ID               uuid.UUID
	SheetID          uuid.UUID
	SharedWithUserID uuid.UUID
	Level            Level
	SharedBy         uuid.UUID
	SharedAt         time.Time
	ExpiresAt        *time.Time
}

// Active reports whether the grant is live at the given instant. An expired
// share is treated as nonexistent by every authorization read; the row itself
// is not proactively deleted.
func (s *Share) Active(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}
