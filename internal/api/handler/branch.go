package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sheetdesk/sheetdesk/internal/api/middleware"
	"github.com/sheetdesk/sheetdesk/internal/api/response"
	"github.com/sheetdesk/sheetdesk/internal/api/validation"
	"github.com/sheetdesk/sheetdesk/internal/audit"
	"github.com/sheetdesk/sheetdesk/internal/branch"
	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

// branchRequest is the request body for POST and PUT /api/branches.
type branchRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// branchResponse is the API representation of a branch record.
type branchResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// toBranchResponse converts a branch model to its API response representation.
func toBranchResponse(b *branch.Branch) branchResponse {
	return branchResponse{
		ID:          b.ID.String(),
		Name:        b.Name,
		Description: b.Description,
		IsActive:    b.IsActive,
		CreatedAt:   b.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:   b.UpdatedAt.UTC().Format(timeFormat),
	}
}

// BranchHandler handles branch CRUD endpoints.
type BranchHandler struct {
	repo     branch.Repository
	userRepo user.Repository
	recorder *audit.Recorder
}

// NewBranchHandler creates a new BranchHandler.
func NewBranchHandler(repo branch.Repository, userRepo user.Repository, recorder *audit.Recorder) *BranchHandler {
	return &BranchHandler{
		repo:     repo,
		userRepo: userRepo,
		recorder: recorder,
	}
}

// List handles GET /api/branches. Admins see every active branch; everyone
// else sees only the branch they belong to.
func (h *BranchHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := branch.ListFilter{Page: page, Limit: limit}

	if actor.Role != identity.RoleAdmin {
		if actor.BranchID == nil {
			response.OKList(w, "Branches retrieved", []branchResponse{}, 0, page, limit)
			return
		}
		filter.ID = actor.BranchID
	}

	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list branches", "error", err)
		response.Err(w, http.StatusInternalServerError, "Failed to list branches")
		return
	}

	items := make([]branchResponse, 0, len(result.Branches))
	for i := range result.Branches {
		items = append(items, toBranchResponse(&result.Branches[i]))
	}

	response.OKList(w, "Branches retrieved", items, result.Total, result.Page, result.Limit)
}

// GetByID handles GET /api/branches/{id}.
func (h *BranchHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	b, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Branch not found")
			return
		}
		slog.Error("failed to get branch", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to get branch")
		return
	}

	if actor.Role != identity.RoleAdmin && !actor.InBranch(b.ID) {
		response.Err(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	response.OK(w, http.StatusOK, "Branch retrieved", toBranchResponse(b))
}

// Create handles POST /api/branches. Admin only.
func (h *BranchHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateBranchRequest(validation.BranchRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	b := &branch.Branch{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   actor.UserID,
	}

	if err := h.repo.Create(r.Context(), b); err != nil {
		slog.Error("failed to create branch", "error", err)
		response.Err(w, http.StatusInternalServerError, "Failed to create branch")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionBranchCreated, "branch", &b.ID,
		nil, map[string]any{"name": b.Name}, clientIP(r), r.UserAgent())

	response.OK(w, http.StatusCreated, "Branch created", toBranchResponse(b))
}

// Update handles PUT /api/branches/{id}. Admin only.
func (h *BranchHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateBranchRequest(validation.BranchRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Branch not found")
			return
		}
		slog.Error("failed to get branch for update", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to update branch")
		return
	}

	updated, err := h.repo.Update(r.Context(), id, branch.UpdateFields{
		Name:        &req.Name,
		Description: &req.Description,
	})
	if err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Branch not found")
			return
		}
		slog.Error("failed to update branch", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to update branch")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionBranchUpdated, "branch", &id,
		map[string]any{"name": existing.Name, "description": existing.Description},
		map[string]any{"name": updated.Name, "description": updated.Description},
		clientIP(r), r.UserAgent())

	response.OK(w, http.StatusOK, "Branch updated", toBranchResponse(updated))
}

// Delete handles DELETE /api/branches/{id}. Admin only; soft deactivation,
// which removes the branch and everything scoped to it from non-admin views.
func (h *BranchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Branch not found")
			return
		}
		slog.Error("failed to get branch for delete", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to delete branch")
		return
	}

	if err := h.repo.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Branch not found")
			return
		}
		slog.Error("failed to deactivate branch", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to delete branch")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionBranchDeleted, "branch", &id,
		map[string]any{"name": existing.Name}, nil, clientIP(r), r.UserAgent())

	response.OK(w, http.StatusOK, "Branch deactivated", nil)
}

// ListUsers handles GET /api/branches/{id}/users. Admins and the branch's own
// members may list branch membership.
func (h *BranchHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.repo.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Branch not found")
			return
		}
		slog.Error("failed to get branch", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to list branch users")
		return
	}

	if actor.Role != identity.RoleAdmin && !actor.InBranch(id) {
		response.Err(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	result, err := h.userRepo.List(r.Context(), user.ListFilter{
		BranchID: &id,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		slog.Error("failed to list branch users", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to list branch users")
		return
	}

	items := make([]userResponse, 0, len(result.Users))
	for i := range result.Users {
		items = append(items, toUserResponse(&result.Users[i]))
	}

	response.OKList(w, "Branch users retrieved", items, result.Total, result.Page, result.Limit)
}
