package team

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a row in the teams table. A team belongs to exactly one
// branch and narrows that branch's scope; its name is unique within the branch.
type Team struct {
	ID          uuid.UUID
	BranchID    uuid.UUID
	Name        string
	Description string
	CreatedBy   uuid.UUID
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
