package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Notifier fans out notifications best-effort: a failed insert is logged and
// swallowed, never failing the mutation that triggered it.
type Notifier struct {
	repo Repository
}

// NewNotifier creates a Notifier backed by the given repository.
func NewNotifier(repo Repository) *Notifier {
	return &Notifier{repo: repo}
}

// Push sends one notification to one recipient.
func (n *Notifier) Push(ctx context.Context, recipientID, actorID uuid.UUID, typ, title, message, entityType string, entityID uuid.UUID) {
	notification := Notification{
		UserID:     recipientID,
		ActorID:    &actorID,
		Type:       typ,
		Title:      title,
		Message:    message,
		EntityType: &entityType,
		EntityID:   &entityID,
	}

	if err := n.repo.Insert(ctx, &notification); err != nil {
		slog.Error("failed to create notification", "error", err, "type", typ, "recipient", recipientID)
	}
}

// PushMany sends the same notification to several recipients, skipping the
// actor if present in the list.
func (n *Notifier) PushMany(ctx context.Context, recipientIDs []uuid.UUID, actorID uuid.UUID, typ, title, message, entityType string, entityID uuid.UUID) {
	notifications := make([]Notification, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		if id == actorID {
			continue
		}
		actor := actorID
		et := entityType
		eid := entityID
		notifications = append(notifications, Notification{
			UserID:     id,
			ActorID:    &actor,
			Type:       typ,
			Title:      title,
			Message:    message,
			EntityType: &et,
			EntityID:   &eid,
		})
	}

	if err := n.repo.InsertMany(ctx, notifications); err != nil {
		slog.Error("failed to create notifications", "error", err, "type", typ, "recipients", len(notifications))
	}
}
