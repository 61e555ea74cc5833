package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sheetdesk/sheetdesk/internal/access"
	"github.com/sheetdesk/sheetdesk/internal/api/middleware"
	"github.com/sheetdesk/sheetdesk/internal/api/response"
	"github.com/sheetdesk/sheetdesk/internal/api/validation"
	"github.com/sheetdesk/sheetdesk/internal/audit"
	"github.com/sheetdesk/sheetdesk/internal/branch"
	"github.com/sheetdesk/sheetdesk/internal/cell"
	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/notify"
	"github.com/sheetdesk/sheetdesk/internal/share"
	"github.com/sheetdesk/sheetdesk/internal/sheet"
	"github.com/sheetdesk/sheetdesk/internal/team"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

// createSheetRequest is the request body for POST /api/sheets.
type createSheetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BranchID    string `json:"branch_id"`
	TeamID      string `json:"team_id"`
	Rows        *int   `json:"rows"`
	Columns     *int   `json:"columns"`
}

// updateSheetRequest is the request body for PUT /api/sheets/{id}.
type updateSheetRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsArchived  *bool   `json:"is_archived,omitempty"`
}

// sheetResponse is the API representation of a sheet record.
type sheetResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BranchID    string  `json:"branch_id"`
	TeamID      *string `json:"team_id"`
	CreatedBy   string  `json:"created_by"`
	Rows        int     `json:"rows"`
	Columns     int     `json:"columns"`
	IsArchived  bool    `json:"is_archived"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// sheetDetailResponse is the sheet plus its full cell grid.
type sheetDetailResponse struct {
	sheetResponse
	Cells []cellResponse `json:"cells"`
}

// toSheetResponse converts a sheet model to its API response representation.
func toSheetResponse(s *sheet.Sheet) sheetResponse {
	resp := sheetResponse{
		ID:          s.ID.String(),
		Name:        s.Name,
		Description: s.Description,
		BranchID:    s.BranchID.String(),
		CreatedBy:   s.CreatedBy.String(),
		Rows:        s.Rows,
		Columns:     s.Columns,
		IsArchived:  s.IsArchived,
		CreatedAt:   s.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:   s.UpdatedAt.UTC().Format(timeFormat),
	}
	if s.TeamID != nil {
		t := s.TeamID.String()
		resp.TeamID = &t
	}
	return resp
}

// SheetHandler handles sheet CRUD endpoints.
type SheetHandler struct {
	repo       sheet.Repository
	cellRepo   cell.Repository
	shareRepo  share.Repository
	branchRepo branch.Repository
	teamRepo   team.Repository
	userRepo   user.Repository
	recorder   *audit.Recorder
	notifier   *notify.Notifier
}

// NewSheetHandler creates a new SheetHandler.
func NewSheetHandler(repo sheet.Repository, cellRepo cell.Repository, shareRepo share.Repository, branchRepo branch.Repository, teamRepo team.Repository, userRepo user.Repository, recorder *audit.Recorder, notifier *notify.Notifier) *SheetHandler {
	return &SheetHandler{
		repo:       repo,
		cellRepo:   cellRepo,
		shareRepo:  shareRepo,
		branchRepo: branchRepo,
		teamRepo:   teamRepo,
		userRepo:   userRepo,
		recorder:   recorder,
		notifier:   notifier,
	}
}

// grantFor looks up the actor's share on a sheet, mapping absence to nil.
// The access engine treats nil and expired grants identically.
func grantFor(ctx context.Context, repo share.Repository, sheetID, userID uuid.UUID) (*share.Share, error) {
	grant, err := repo.GetForUser(ctx, sheetID, userID)
	if err != nil {
		if errors.Is(err, share.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return grant, nil
}

// List handles GET /api/sheets. The scope restriction follows the actor's
// role: admins see everything, managers their active branch, team leads their
// active team, users and agents only sheets with a live share.
func (h *SheetHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := sheet.ListFilter{Page: page, Limit: limit}

	switch actor.Role {
	case identity.RoleAdmin:
		if v := r.URL.Query().Get("branch_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				response.Err(w, http.StatusBadRequest, "branch_id must be a valid UUID")
				return
			}
			filter.BranchID = &id
		}
	case identity.RoleManager:
		if actor.BranchID == nil {
			response.OKList(w, "Sheets retrieved", []sheetResponse{}, 0, page, limit)
			return
		}
		filter.BranchID = actor.BranchID
	case identity.RoleTeamLead:
		if actor.TeamID == nil {
			response.OKList(w, "Sheets retrieved", []sheetResponse{}, 0, page, limit)
			return
		}
		filter.TeamID = actor.TeamID
	default:
		filter.SharedWithUserID = &actor.UserID
	}

	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}
	// Archived sheets are included unless explicitly filtered out.
	filter.IncludeArchived = r.URL.Query().Get("archived") != "false"

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list sheets", "error", err)
		response.Err(w, http.StatusInternalServerError, "Failed to list sheets")
		return
	}

	items := make([]sheetResponse, 0, len(result.Sheets))
	for i := range result.Sheets {
		items = append(items, toSheetResponse(&result.Sheets[i]))
	}

	response.OKList(w, "Sheets retrieved", items, result.Total, result.Page, result.Limit)
}

// GetByID handles GET /api/sheets/{id}, returning the sheet with its full
// cell grid. Nonexistence is reported before permission is evaluated.
func (h *SheetHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	s, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sheet.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Sheet not found")
			return
		}
		slog.Error("failed to get sheet", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to get sheet")
		return
	}

	grant, err := grantFor(r.Context(), h.shareRepo, id, actor.UserID)
	if err != nil {
		slog.Error("failed to look up share", "error", err, "sheetId", id)
		response.Err(w, http.StatusInternalServerError, "Failed to get sheet")
		return
	}

	if !access.CanAccessSheet(*actor, s, grant, time.Now()) {
		response.Err(w, http.StatusForbidden, "You do not have access to this sheet")
		return
	}

	cells, err := h.cellRepo.ListAll(r.Context(), id)
	if err != nil {
		slog.Error("failed to list sheet cells", "error", err, "sheetId", id)
		response.Err(w, http.StatusInternalServerError, "Failed to get sheet")
		return
	}

	detail := sheetDetailResponse{
		sheetResponse: toSheetResponse(s),
		Cells:         make([]cellResponse, 0, len(cells)),
	}
	for i := range cells {
		detail.Cells = append(detail.Cells, toCellResponse(&cells[i]))
	}

	response.OK(w, http.StatusOK, "Sheet retrieved", detail)
}

// Create handles POST /api/sheets. Admins may anchor a sheet to any branch,
// managers only to their own, team leads to any branch they belong to; users
// and agents never create sheets.
func (h *SheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req createSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateCreateSheetRequest(validation.CreateSheetRequest{
		Name:        req.Name,
		Description: req.Description,
		BranchID:    req.BranchID,
		TeamID:      req.TeamID,
		Rows:        req.Rows,
		Columns:     req.Columns,
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	branchID := uuid.MustParse(req.BranchID)

	if !access.CanCreateSheet(*actor, branchID) {
		response.Err(w, http.StatusForbidden, "You cannot create sheets in this branch")
		return
	}

	if _, err := h.branchRepo.GetByID(r.Context(), branchID); err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Branch not found")
			return
		}
		slog.Error("failed to get branch", "error", err, "id", branchID)
		response.Err(w, http.StatusInternalServerError, "Failed to create sheet")
		return
	}

	s := &sheet.Sheet{
		Name:        req.Name,
		Description: req.Description,
		BranchID:    branchID,
		CreatedBy:   actor.UserID,
	}
	if req.Rows != nil {
		s.Rows = *req.Rows
	}
	if req.Columns != nil {
		s.Columns = *req.Columns
	}

	if req.TeamID != "" {
		teamID := uuid.MustParse(req.TeamID)
		t, err := h.teamRepo.GetByID(r.Context(), teamID)
		if err != nil {
			if errors.Is(err, team.ErrNotFound) {
				response.Err(w, http.StatusNotFound, "Team not found")
				return
			}
			slog.Error("failed to get team", "error", err, "id", teamID)
			response.Err(w, http.StatusInternalServerError, "Failed to create sheet")
			return
		}
		if t.BranchID != branchID {
			response.ErrFields(w, "Input validation failed", []validation.FieldError{
				{Field: "team_id", Message: "team must belong to the sheet's branch"},
			})
			return
		}
		s.TeamID = &teamID
	}

	if err := h.repo.Create(r.Context(), s); err != nil {
		slog.Error("failed to create sheet", "error", err)
		response.Err(w, http.StatusInternalServerError, "Failed to create sheet")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionSheetCreated, "sheet", &s.ID,
		nil, map[string]any{"name": s.Name, "branch_id": s.BranchID.String()},
		clientIP(r), r.UserAgent())

	// Branch managers and admins learn about new sheets in their scope.
	recipients, err := h.userRepo.ListIDsByBranchRoles(r.Context(), branchID,
		[]identity.Role{identity.RoleAdmin, identity.RoleManager})
	if err != nil {
		slog.Error("failed to resolve notification recipients", "error", err, "branchId", branchID)
	} else {
		h.notifier.PushMany(r.Context(), recipients, actor.UserID, notify.TypeSheetCreated,
			"New sheet created", actor.Username+" created sheet \""+s.Name+"\"", "sheet", s.ID)
	}

	response.OK(w, http.StatusCreated, "Sheet created", toSheetResponse(s))
}

// Update handles PUT /api/sheets/{id}: rename, description, archive flag.
func (h *SheetHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req updateSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	fieldErrors := validation.ValidateUpdateSheetRequest(validation.UpdateSheetRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	s, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sheet.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Sheet not found")
			return
		}
		slog.Error("failed to get sheet for update", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to update sheet")
		return
	}

	grant, err := grantFor(r.Context(), h.shareRepo, id, actor.UserID)
	if err != nil {
		slog.Error("failed to look up share", "error", err, "sheetId", id)
		response.Err(w, http.StatusInternalServerError, "Failed to update sheet")
		return
	}

	if !access.CanEditSheet(*actor, s, grant, time.Now()) {
		response.Err(w, http.StatusForbidden, "You do not have permission to edit this sheet")
		return
	}

	updated, err := h.repo.Update(r.Context(), id, sheet.UpdateFields{
		Name:        req.Name,
		Description: req.Description,
		IsArchived:  req.IsArchived,
	})
	if err != nil {
		if errors.Is(err, sheet.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Sheet not found")
			return
		}
		slog.Error("failed to update sheet", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to update sheet")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionSheetUpdated, "sheet", &id,
		map[string]any{"name": s.Name, "description": s.Description, "is_archived": s.IsArchived},
		map[string]any{"name": updated.Name, "description": updated.Description, "is_archived": updated.IsArchived},
		clientIP(r), r.UserAgent())

	if s.CreatedBy != actor.UserID {
		h.notifier.Push(r.Context(), s.CreatedBy, actor.UserID, notify.TypeSheetUpdated,
			"Sheet updated", actor.Username+" updated sheet \""+updated.Name+"\"", "sheet", id)
	}

	response.OK(w, http.StatusOK, "Sheet updated", toSheetResponse(updated))
}

// Delete handles DELETE /api/sheets/{id}. Hard delete; cells and shares
// cascade away with the sheet.
func (h *SheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	s, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sheet.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Sheet not found")
			return
		}
		slog.Error("failed to get sheet for delete", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to delete sheet")
		return
	}

	grant, err := grantFor(r.Context(), h.shareRepo, id, actor.UserID)
	if err != nil {
		slog.Error("failed to look up share", "error", err, "sheetId", id)
		response.Err(w, http.StatusInternalServerError, "Failed to delete sheet")
		return
	}

	if !access.CanEditSheet(*actor, s, grant, time.Now()) {
		response.Err(w, http.StatusForbidden, "You do not have permission to delete this sheet")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sheet.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Sheet not found")
			return
		}
		slog.Error("failed to delete sheet", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to delete sheet")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionSheetDeleted, "sheet", &id,
		map[string]any{"name": s.Name}, nil, clientIP(r), r.UserAgent())

	response.OK(w, http.StatusOK, "Sheet deleted", nil)
}
