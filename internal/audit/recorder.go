package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Recorder writes audit entries best-effort: the log is attempted for every
// mutating path, but its own failure is logged and swallowed so it can never
// roll back or fail the primary mutation.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a Recorder backed by the given repository.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record appends one entry, swallowing storage failures.
func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, action, entityType string, entityID *uuid.UUID, oldValues, newValues map[string]any, ip, userAgent string) {
	e := &Entry{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if ip != "" {
		e.IPAddress = &ip
	}
	if userAgent != "" {
		e.UserAgent = &userAgent
	}

	if err := r.repo.Insert(ctx, e); err != nil {
		slog.Error("failed to record activity", "error", err, "action", action, "entityType", entityType)
	}
}
