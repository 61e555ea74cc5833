package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sheetdesk/sheetdesk/internal/access"
	"github.com/sheetdesk/sheetdesk/internal/api/middleware"
	"github.com/sheetdesk/sheetdesk/internal/api/response"
	"github.com/sheetdesk/sheetdesk/internal/api/validation"
	"github.com/sheetdesk/sheetdesk/internal/audit"
	"github.com/sheetdesk/sheetdesk/internal/mailer"
	"github.com/sheetdesk/sheetdesk/internal/notify"
	"github.com/sheetdesk/sheetdesk/internal/share"
	"github.com/sheetdesk/sheetdesk/internal/sheet"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

// createShareRequest is the request body for POST /api/sheets/{id}/share.
type createShareRequest struct {
	SharedWithUserID string     `json:"shared_with_user_id"`
	PermissionLevel  string     `json:"permission_level"`
	ExpiresAt        *time.Time `json:"expires_at"`
}

// updateShareRequest is the request body for PUT /api/sheets/{id}/shares/{userId}.
type updateShareRequest struct {
	PermissionLevel string `json:"permission_level"`
}

// shareResponse is the API representation of a share grant.
type shareResponse struct {
	ID               string  `json:"id"`
	SheetID          string  `json:"sheet_id"`
	SharedWithUserID string  `json:"shared_with_user_id"`
	PermissionLevel  string  `json:"permission_level"`
	SharedBy         string  `json:"shared_by"`
	SharedAt         string  `json:"shared_at"`
	ExpiresAt        *string `json:"expires_at"`
}

// toShareResponse converts a share model to its API response representation.
func toShareResponse(s *share.Share) shareResponse {
	resp := shareResponse{
		ID:               s.ID.String(),
		SheetID:          s.SheetID.String(),
		SharedWithUserID: s.SharedWithUserID.String(),
		PermissionLevel:  string(s.Level),
		SharedBy:         s.SharedBy.String(),
		SharedAt:         s.SharedAt.UTC().Format(timeFormat),
	}
	if s.ExpiresAt != nil {
		t := s.ExpiresAt.UTC().Format(timeFormat)
		resp.ExpiresAt = &t
	}
	return resp
}

// ShareHandler handles share endpoints under /api/sheets/{id}.
type ShareHandler struct {
	repo      share.Repository
	sheetRepo sheet.Repository
	userRepo  user.Repository
	recorder  *audit.Recorder
	notifier  *notify.Notifier
	mail      mailer.Mailer
}

// NewShareHandler creates a new ShareHandler.
func NewShareHandler(repo share.Repository, sheetRepo sheet.Repository, userRepo user.Repository, recorder *audit.Recorder, notifier *notify.Notifier, mail mailer.Mailer) *ShareHandler {
	return &ShareHandler{
		repo:      repo,
		sheetRepo: sheetRepo,
		userRepo:  userRepo,
		recorder:  recorder,
		notifier:  notifier,
		mail:      mail,
	}
}

// resolveSheet loads the sheet and checks sharing authority: not-found is
// reported before permission. Reports false after writing a response.
func (h *ShareHandler) resolveSheet(w http.ResponseWriter, r *http.Request) (*sheet.Sheet, bool) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return nil, false
	}

	s, err := h.sheetRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sheet.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Sheet not found")
			return nil, false
		}
		slog.Error("failed to get sheet", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to load sheet")
		return nil, false
	}

	actor := middleware.GetIdentity(r.Context())
	if !access.CanShareSheet(*actor, s) {
		response.Err(w, http.StatusForbidden, "You do not have permission to manage shares on this sheet")
		return nil, false
	}

	return s, true
}

// List handles GET /api/sheets/{id}/shares.
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := h.resolveSheet(w, r)
	if !ok {
		return
	}

	shares, err := h.repo.ListBySheet(r.Context(), s.ID)
	if err != nil {
		slog.Error("failed to list shares", "error", err, "sheetId", s.ID)
		response.Err(w, http.StatusInternalServerError, "Failed to list shares")
		return
	}

	items := make([]shareResponse, 0, len(shares))
	for i := range shares {
		items = append(items, toShareResponse(&shares[i]))
	}

	response.OK(w, http.StatusOK, "Shares retrieved", items)
}

// Create handles POST /api/sheets/{id}/share. Re-sharing with a user who
// already holds a grant overwrites its level and expiry in place.
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req createShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	fieldErrors := validation.ValidateCreateShareRequest(validation.CreateShareRequest{
		SharedWithUserID: req.SharedWithUserID,
		PermissionLevel:  req.PermissionLevel,
		ExpiresAt:        req.ExpiresAt,
		Now:              time.Now(),
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	s, ok := h.resolveSheet(w, r)
	if !ok {
		return
	}

	granteeID := uuid.MustParse(req.SharedWithUserID)

	if granteeID == actor.UserID {
		response.Err(w, http.StatusBadRequest, "Cannot share a sheet with yourself")
		return
	}

	grantee, err := h.userRepo.GetByID(r.Context(), granteeID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to get grantee", "error", err, "id", granteeID)
		response.Err(w, http.StatusInternalServerError, "Failed to share sheet")
		return
	}

	level, _ := share.ParseLevel(req.PermissionLevel)

	grant := &share.Share{
		SheetID:          s.ID,
		SharedWithUserID: granteeID,
		Level:            level,
		SharedBy:         actor.UserID,
		ExpiresAt:        req.ExpiresAt,
	}

	if err := h.repo.Upsert(r.Context(), grant); err != nil {
		slog.Error("failed to upsert share", "error", err, "sheetId", s.ID, "userId", granteeID)
		response.Err(w, http.StatusInternalServerError, "Failed to share sheet")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionSheetShared, "sheet", &s.ID,
		nil, map[string]any{"shared_with": granteeID.String(), "permission_level": string(level)},
		clientIP(r), r.UserAgent())

	h.notifier.Push(r.Context(), granteeID, actor.UserID, notify.TypeSheetShared,
		"Sheet shared with you", actor.Username+" shared sheet \""+s.Name+"\" with you", "sheet", s.ID)

	if err := h.mail.SendSheetShared(r.Context(), grantee.Email, grantee.DisplayName(), s.Name, actor.Username); err != nil {
		slog.Error("failed to send share email", "error", err, "email", grantee.Email)
	}

	response.OK(w, http.StatusCreated, "Sheet shared", toShareResponse(grant))
}

// Update handles PUT /api/sheets/{id}/shares/{userId}: change the permission
// level of an existing grant.
func (h *ShareHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	userID, ok := parseIDParam(w, r, "userId")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req updateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	fieldErrors := validation.ValidateUpdateShareRequest(validation.UpdateShareRequest{
		PermissionLevel: req.PermissionLevel,
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	s, ok := h.resolveSheet(w, r)
	if !ok {
		return
	}

	level, _ := share.ParseLevel(req.PermissionLevel)

	updated, err := h.repo.UpdateLevel(r.Context(), s.ID, userID, level)
	if err != nil {
		if errors.Is(err, share.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Share not found")
			return
		}
		slog.Error("failed to update share", "error", err, "sheetId", s.ID, "userId", userID)
		response.Err(w, http.StatusInternalServerError, "Failed to update share")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionShareUpdated, "sheet", &s.ID,
		nil, map[string]any{"shared_with": userID.String(), "permission_level": string(level)},
		clientIP(r), r.UserAgent())

	response.OK(w, http.StatusOK, "Share updated", toShareResponse(updated))
}

// Delete handles DELETE /api/sheets/{id}/shares/{userId}: revoke a grant.
func (h *ShareHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	userID, ok := parseIDParam(w, r, "userId")
	if !ok {
		return
	}

	s, ok := h.resolveSheet(w, r)
	if !ok {
		return
	}

	removed, err := h.repo.Delete(r.Context(), s.ID, userID)
	if err != nil {
		if errors.Is(err, share.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Share not found")
			return
		}
		slog.Error("failed to delete share", "error", err, "sheetId", s.ID, "userId", userID)
		response.Err(w, http.StatusInternalServerError, "Failed to remove share")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionShareRemoved, "sheet", &s.ID,
		map[string]any{"shared_with": userID.String(), "permission_level": string(removed.Level)}, nil,
		clientIP(r), r.UserAgent())

	response.OK(w, http.StatusOK, "Share removed", nil)
}
