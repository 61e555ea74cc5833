package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sheetdesk/sheetdesk/internal/api/middleware"
	"github.com/sheetdesk/sheetdesk/internal/api/response"
	"github.com/sheetdesk/sheetdesk/internal/notify"
)

// notificationResponse is the API representation of a notification record.
type notificationResponse struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	ActorID    *string `json:"actor_id"`
	EntityType *string `json:"entity_type"`
	EntityID   *string `json:"entity_id"`
	IsRead     bool    `json:"is_read"`
	ReadAt     *string `json:"read_at"`
	CreatedAt  string  `json:"created_at"`
}

// toNotificationResponse converts a notification model to its API response
// representation.
func toNotificationResponse(n *notify.Notification) notificationResponse {
	resp := notificationResponse{
		ID:         n.ID.String(),
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		EntityType: n.EntityType,
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt.UTC().Format(timeFormat),
	}
	if n.ActorID != nil {
		s := n.ActorID.String()
		resp.ActorID = &s
	}
	if n.EntityID != nil {
		s := n.EntityID.String()
		resp.EntityID = &s
	}
	if n.ReadAt != nil {
		t := n.ReadAt.UTC().Format(timeFormat)
		resp.ReadAt = &t
	}
	return resp
}

// NotificationHandler handles the authenticated user's notification inbox.
type NotificationHandler struct {
	repo notify.Repository
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(repo notify.Repository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := notify.ListFilter{
		UserID: actor.UserID,
		Page:   page,
		Limit:  limit,
	}
	if v := r.URL.Query().Get("is_read"); v != "" {
		isRead := v == "true"
		filter.IsRead = &isRead
	}

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list notifications", "error", err, "userId", actor.UserID)
		response.Err(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	items := make([]notificationResponse, 0, len(result.Notifications))
	for i := range result.Notifications {
		items = append(items, toNotificationResponse(&result.Notifications[i]))
	}

	response.OKList(w, "Notifications retrieved", items, result.Total, result.Page, result.Limit)
}

// UnreadCount handles GET /api/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	count, err := h.repo.UnreadCount(r.Context(), actor.UserID)
	if err != nil {
		slog.Error("failed to count unread notifications", "error", err, "userId", actor.UserID)
		response.Err(w, http.StatusInternalServerError, "Failed to count notifications")
		return
	}

	response.OK(w, http.StatusOK, "Unread count", map[string]int{"count": count})
}

// loadOwned loads a notification and verifies the actor owns it. Reports
// false after writing a response.
func (h *NotificationHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*notify.Notification, bool) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return nil, false
	}

	n, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, notify.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Notification not found")
			return nil, false
		}
		slog.Error("failed to get notification", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to load notification")
		return nil, false
	}

	// Other users' notifications are indistinguishable from absent ones.
	if n.UserID != actor.UserID {
		response.Err(w, http.StatusNotFound, "Notification not found")
		return nil, false
	}

	return n, true
}

// MarkRead handles PUT /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.repo.MarkRead(r.Context(), n.ID); err != nil {
		slog.Error("failed to mark notification read", "error", err, "id", n.ID)
		response.Err(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}

	response.OK(w, http.StatusOK, "Notification marked as read", nil)
}

// MarkAllRead handles PUT /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	if err := h.repo.MarkAllRead(r.Context(), actor.UserID); err != nil {
		slog.Error("failed to mark notifications read", "error", err, "userId", actor.UserID)
		response.Err(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	response.OK(w, http.StatusOK, "All notifications marked as read", nil)
}

// Delete handles DELETE /api/notifications/{id}.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	n, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), n.ID); err != nil {
		slog.Error("failed to delete notification", "error", err, "id", n.ID)
		response.Err(w, http.StatusInternalServerError, "Failed to delete notification")
		return
	}

	response.OK(w, http.StatusOK, "Notification deleted", nil)
}
