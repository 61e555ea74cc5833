package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sheetdesk/sheetdesk/internal/api/middleware"
	"github.com/sheetdesk/sheetdesk/internal/api/response"
	"github.com/sheetdesk/sheetdesk/internal/audit"
	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

// activityLogResponse is the API representation of an activity log entry.
type activityLogResponse struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *string        `json:"entity_id"`
	OldValues  map[string]any `json:"old_values"`
	NewValues  map[string]any `json:"new_values"`
	IPAddress  *string        `json:"ip_address"`
	UserAgent  *string        `json:"user_agent"`
	CreatedAt  string         `json:"created_at"`
}

// toActivityLogResponse converts a log entry to its API representation.
func toActivityLogResponse(e *audit.Entry) activityLogResponse {
	resp := activityLogResponse{
		ID:         e.ID.String(),
		UserID:     e.UserID.String(),
		Action:     e.Action,
		EntityType: e.EntityType,
		OldValues:  e.OldValues,
		NewValues:  e.NewValues,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		CreatedAt:  e.CreatedAt.UTC().Format(timeFormat),
	}
	if e.EntityID != nil {
		s := e.EntityID.String()
		resp.EntityID = &s
	}
	return resp
}

// ActivityLogHandler handles read access to the activity log.
type ActivityLogHandler struct {
	repo     audit.Repository
	userRepo user.Repository
}

// NewActivityLogHandler creates a new ActivityLogHandler.
func NewActivityLogHandler(repo audit.Repository, userRepo user.Repository) *ActivityLogHandler {
	return &ActivityLogHandler{repo: repo, userRepo: userRepo}
}

// List handles GET /api/activity-logs. Admins read everything; managers only
// entries produced by members of their own branch.
func (h *ActivityLogHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := audit.ListFilter{Page: page, Limit: limit}

	if actor.Role == identity.RoleManager {
		if actor.BranchID == nil {
			response.OKList(w, "Activity logs retrieved", []activityLogResponse{}, 0, page, limit)
			return
		}
		ids, err := h.userRepo.ListIDsByBranch(r.Context(), *actor.BranchID)
		if err != nil {
			slog.Error("failed to resolve branch members", "error", err, "branchId", actor.BranchID)
			response.Err(w, http.StatusInternalServerError, "Failed to list activity logs")
			return
		}
		if len(ids) == 0 {
			response.OKList(w, "Activity logs retrieved", []activityLogResponse{}, 0, page, limit)
			return
		}
		filter.UserIDs = ids
	}

	if v := r.URL.Query().Get("action"); v != "" {
		filter.Action = &v
	}
	if v := r.URL.Query().Get("entity_type"); v != "" {
		filter.EntityType = &v
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "user_id must be a valid UUID")
			return
		}
		filter.UserID = &id
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "from must be an RFC3339 timestamp")
			return
		}
		filter.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "to must be an RFC3339 timestamp")
			return
		}
		filter.To = &t
	}

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list activity logs", "error", err)
		response.Err(w, http.StatusInternalServerError, "Failed to list activity logs")
		return
	}

	items := make([]activityLogResponse, 0, len(result.Entries))
	for i := range result.Entries {
		items = append(items, toActivityLogResponse(&result.Entries[i]))
	}

	response.OKList(w, "Activity logs retrieved", items, result.Total, result.Page, result.Limit)
}

// ListByUser handles GET /api/activity-logs/user/{id}. Admin only.
func (h *ActivityLogHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	result, err := h.repo.List(r.Context(), audit.ListFilter{
		UserID: &id,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		slog.Error("failed to list user activity", "error", err, "userId", id)
		response.Err(w, http.StatusInternalServerError, "Failed to list activity logs")
		return
	}

	items := make([]activityLogResponse, 0, len(result.Entries))
	for i := range result.Entries {
		items = append(items, toActivityLogResponse(&result.Entries[i]))
	}

	response.OKList(w, "Activity logs retrieved", items, result.Total, result.Page, result.Limit)
}
