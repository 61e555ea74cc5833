package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a notification record is not found.
var ErrNotFound = errors.New("notification not found")

// Repository provides operations on the notifications table.
type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	InsertMany(ctx context.Context, ns []Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}
