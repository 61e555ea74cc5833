package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetdesk/sheetdesk/internal/api/handler"
	"github.com/sheetdesk/sheetdesk/internal/notify"
)

func TestNotificationList(t *testing.T) {
	actor := userActor()

	var captured notify.ListFilter
	repo := &mockNotifyRepo{
		listFn: func(ctx context.Context, filter notify.ListFilter) (*notify.ListResult, error) {
			captured = filter
			return &notify.ListResult{
				Notifications: []notify.Notification{
					{ID: uuid.New(), UserID: actor.UserID, Type: notify.TypeSheetShared, Title: "Sheet shared with you", Message: "m", CreatedAt: time.Now()},
				},
				Total: 1,
				Page:  filter.Page,
				Limit: filter.Limit,
			}, nil
		},
	}
	h := handler.NewNotificationHandler(repo)

	t.Run("inbox is actor-scoped", func(t *testing.T) {
		req, w := makeRequest(t, http.MethodGet, "/api/notifications", nil, actor, nil)
		h.List(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, actor.UserID, captured.UserID)
		assert.Nil(t, captured.IsRead)

		env := parseEnvelope(t, w)
		assert.Len(t, env["data"].([]any), 1)
	})

	t.Run("is_read filter", func(t *testing.T) {
		req, w := makeRequest(t, http.MethodGet, "/api/notifications?is_read=false", nil, actor, nil)
		h.List(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured.IsRead)
		assert.False(t, *captured.IsRead)
	})
}

func TestNotificationUnreadCount(t *testing.T) {
	actor := userActor()
	repo := &mockNotifyRepo{
		unreadCountFn: func(ctx context.Context, userID uuid.UUID) (int, error) {
			return 7, nil
		},
	}
	h := handler.NewNotificationHandler(repo)

	req, w := makeRequest(t, http.MethodGet, "/api/notifications/unread-count", nil, actor, nil)
	h.UnreadCount(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	assert.Equal(t, float64(7), env["data"].(map[string]any)["count"])
}

func TestNotificationMarkRead(t *testing.T) {
	actor := userActor()
	own := &notify.Notification{ID: uuid.New(), UserID: actor.UserID, Type: notify.TypeSheetShared, CreatedAt: time.Now()}

	t.Run("own notification", func(t *testing.T) {
		var marked uuid.UUID
		repo := &mockNotifyRepo{
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*notify.Notification, error) {
				return own, nil
			},
			markReadFn: func(ctx context.Context, id uuid.UUID) error {
				marked = id
				return nil
			},
		}
		h := handler.NewNotificationHandler(repo)

		req, w := makeRequest(t, http.MethodPut, "/api/notifications/"+own.ID.String()+"/read", nil, actor, map[string]string{"id": own.ID.String()})
		h.MarkRead(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, own.ID, marked)
	})

	t.Run("someone else's looks absent", func(t *testing.T) {
		other := &notify.Notification{ID: uuid.New(), UserID: uuid.New(), CreatedAt: time.Now()}
		repo := &mockNotifyRepo{
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*notify.Notification, error) {
				return other, nil
			},
		}
		h := handler.NewNotificationHandler(repo)

		req, w := makeRequest(t, http.MethodPut, "/api/notifications/"+other.ID.String()+"/read", nil, actor, map[string]string{"id": other.ID.String()})
		h.MarkRead(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		env := parseEnvelope(t, w)
		assert.Equal(t, "Notification not found", env["message"])
	})

	t.Run("missing", func(t *testing.T) {
		h := handler.NewNotificationHandler(&mockNotifyRepo{})
		id := uuid.New()
		req, w := makeRequest(t, http.MethodPut, "/api/notifications/"+id.String()+"/read", nil, actor, map[string]string{"id": id.String()})
		h.MarkRead(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestNotificationMarkAllRead(t *testing.T) {
	actor := userActor()
	var cleared uuid.UUID
	repo := &mockNotifyRepo{
		markAllReadFn: func(ctx context.Context, userID uuid.UUID) error {
			cleared = userID
			return nil
		},
	}
	h := handler.NewNotificationHandler(repo)

	req, w := makeRequest(t, http.MethodPut, "/api/notifications/read-all", nil, actor, nil)
	h.MarkAllRead(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, actor.UserID, cleared)
}

func TestNotificationDelete(t *testing.T) {
	actor := userActor()
	own := &notify.Notification{ID: uuid.New(), UserID: actor.UserID, CreatedAt: time.Now()}

	var deleted uuid.UUID
	repo := &mockNotifyRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*notify.Notification, error) {
			return own, nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}
	h := handler.NewNotificationHandler(repo)

	req, w := makeRequest(t, http.MethodDelete, "/api/notifications/"+own.ID.String(), nil, actor, map[string]string{"id": own.ID.String()})
	h.Delete(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, own.ID, deleted)
}
