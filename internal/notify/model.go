package notify

import (
	"time"

	"github.com/google/uuid"
)

// Notification type tags.
const (
	TypeSheetCreated = "sheet_created"
	TypeSheetUpdated = "sheet_updated"
	TypeSheetShared  = "sheet_shared"
	TypeUserCreated  = "user_created"
)

// Notification represents a row in the notifications table: a message fanned
// out to one recipient about an action some actor took on an entity.
type Notification struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ActorID    *uuid.UUID
	Type       string
	Title      string
	Message    string
	EntityType *string
	EntityID   *uuid.UUID
	IsRead     bool
	ReadAt     *time.Time
	CreatedAt  time.Time
}

// ListFilter holds optional filters and pagination for a recipient's inbox.
type ListFilter struct {
	UserID uuid.UUID
	IsRead *bool
	Page   int // default 1
	Limit  int // default 20
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Notifications []Notification
	Total         int
	Page          int
	Limit         int
}
