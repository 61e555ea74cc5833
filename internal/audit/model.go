package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action tags for every mutating operation in the system.
const (
	ActionLogin         = "login"
	ActionUserCreated   = "user_created"
	ActionUserUpdated   = "user_updated"
	ActionUserDeleted   = "user_deleted"
	ActionBranchCreated = "branch_created"
	ActionBranchUpdated = "branch_updated"
	ActionBranchDeleted = "branch_deleted"
	ActionTeamCreated   = "team_created"
	ActionTeamDeleted   = "team_deleted"
	ActionSheetCreated  = "sheet_created"
	ActionSheetUpdated  = "sheet_updated"
	ActionSheetDeleted  = "sheet_deleted"
	ActionSheetShared   = "sheet_shared"
	ActionShareUpdated  = "share_updated"
	ActionShareRemoved  = "share_removed"
	ActionCellCreated   = "cell_created"
	ActionCellUpdated   = "cell_updated"
	ActionCellDeleted   = "cell_deleted"
)

// Entry represents a row in the activity_logs table: who did what to which
// entity, with before/after state and request metadata. The log is append-only
// and never consulted by access decisions.
type Entry struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	OldValues  map[string]any
	NewValues  map[string]any
	IPAddress  *string
	UserAgent  *string
	CreatedAt  time.Time
}

// ListFilter holds optional filters and pagination for reading the log.
type ListFilter struct {
	UserID     *uuid.UUID
	UserIDs    []uuid.UUID // restrict to a set of users (manager branch scope)
	Action     *string
	EntityType *string
	From       *time.Time
	To         *time.Time
	Page       int // default 1
	Limit      int // default 20
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Entries []Entry
	Total   int
	Page    int
	Limit   int
}
