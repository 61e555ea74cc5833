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
	"github.com/sheetdesk/sheetdesk/internal/team"
)

// createTeamRequest is the request body for POST /api/branches/{id}/teams.
type createTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// teamResponse is the API representation of a team record.
type teamResponse struct {
	ID          string `json:"id"`
	BranchID    string `json:"branch_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// toTeamResponse converts a team model to its API response representation.
func toTeamResponse(t *team.Team) teamResponse {
	return teamResponse{
		ID:          t.ID.String(),
		BranchID:    t.BranchID.String(),
		Name:        t.Name,
		Description: t.Description,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:   t.UpdatedAt.UTC().Format(timeFormat),
	}
}

// TeamHandler handles team endpoints nested under branches.
type TeamHandler struct {
	repo       team.Repository
	branchRepo branch.Repository
	recorder   *audit.Recorder
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(repo team.Repository, branchRepo branch.Repository, recorder *audit.Recorder) *TeamHandler {
	return &TeamHandler{
		repo:       repo,
		branchRepo: branchRepo,
		recorder:   recorder,
	}
}

// canManageBranchTeams reports whether the actor may create or remove teams
// in the given branch: admins anywhere, managers in their own branch.
func canManageBranchTeams(actor *identity.Identity, branchID branch.Branch) bool {
	return actor.Role == identity.RoleAdmin ||
		(actor.Role == identity.RoleManager && actor.InBranch(branchID.ID))
}

// ListByBranch handles GET /api/branches/{id}/teams.
func (h *TeamHandler) ListByBranch(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	branchID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.branchRepo.GetByID(r.Context(), branchID); err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Branch not found")
			return
		}
		slog.Error("failed to get branch", "error", err, "id", branchID)
		response.Err(w, http.StatusInternalServerError, "Failed to list teams")
		return
	}

	if actor.Role != identity.RoleAdmin && !actor.InBranch(branchID) {
		response.Err(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	teams, err := h.repo.ListByBranch(r.Context(), branchID)
	if err != nil {
		slog.Error("failed to list teams", "error", err, "branchId", branchID)
		response.Err(w, http.StatusInternalServerError, "Failed to list teams")
		return
	}

	items := make([]teamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, toTeamResponse(&teams[i]))
	}

	response.OK(w, http.StatusOK, "Teams retrieved", items)
}

// Create handles POST /api/branches/{id}/teams.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	branchID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	b, err := h.branchRepo.GetByID(r.Context(), branchID)
	if err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Branch not found")
			return
		}
		slog.Error("failed to get branch", "error", err, "id", branchID)
		response.Err(w, http.StatusInternalServerError, "Failed to create team")
		return
	}

	if !canManageBranchTeams(actor, *b) {
		response.Err(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	t := &team.Team{
		BranchID:    branchID,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   actor.UserID,
	}

	if err := h.repo.Create(r.Context(), t); err != nil {
		if errors.Is(err, team.ErrDuplicateName) {
			response.Err(w, http.StatusConflict, "A team with this name already exists in the branch")
			return
		}
		slog.Error("failed to create team", "error", err)
		response.Err(w, http.StatusInternalServerError, "Failed to create team")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionTeamCreated, "team", &t.ID,
		nil, map[string]any{"name": t.Name, "branch_id": branchID.String()},
		clientIP(r), r.UserAgent())

	response.OK(w, http.StatusCreated, "Team created", toTeamResponse(t))
}

// Delete handles DELETE /api/branches/{id}/teams/{teamId}. Soft deactivation.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	branchID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	teamID, ok := parseIDParam(w, r, "teamId")
	if !ok {
		return
	}

	t, err := h.repo.GetByID(r.Context(), teamID)
	if err != nil {
		if errors.Is(err, team.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Team not found")
			return
		}
		slog.Error("failed to get team", "error", err, "id", teamID)
		response.Err(w, http.StatusInternalServerError, "Failed to delete team")
		return
	}

	if t.BranchID != branchID {
		response.Err(w, http.StatusNotFound, "Team not found")
		return
	}

	b, err := h.branchRepo.GetByID(r.Context(), branchID)
	if err != nil {
		if errors.Is(err, branch.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Branch not found")
			return
		}
		slog.Error("failed to get branch", "error", err, "id", branchID)
		response.Err(w, http.StatusInternalServerError, "Failed to delete team")
		return
	}

	if !canManageBranchTeams(actor, *b) {
		response.Err(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	if err := h.repo.Deactivate(r.Context(), teamID); err != nil {
		if errors.Is(err, team.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Team not found")
			return
		}
		slog.Error("failed to deactivate team", "error", err, "id", teamID)
		response.Err(w, http.StatusInternalServerError, "Failed to delete team")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionTeamDeleted, "team", &teamID,
		map[string]any{"name": t.Name, "branch_id": branchID.String()}, nil,
		clientIP(r), r.UserAgent())

	response.OK(w, http.StatusOK, "Team deactivated", nil)
}
