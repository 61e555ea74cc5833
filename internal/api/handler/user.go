package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sheetdesk/sheetdesk/internal/api/middleware"
	"github.com/sheetdesk/sheetdesk/internal/api/response"
	"github.com/sheetdesk/sheetdesk/internal/api/validation"
	"github.com/sheetdesk/sheetdesk/internal/audit"
	"github.com/sheetdesk/sheetdesk/internal/auth"
	"github.com/sheetdesk/sheetdesk/internal/identity"
	"github.com/sheetdesk/sheetdesk/internal/mailer"
	"github.com/sheetdesk/sheetdesk/internal/notify"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

// createUserRequest is the request body for POST /api/users.
type createUserRequest struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      string  `json:"role"`
	BranchID  string  `json:"branch_id"`
	TeamID    string  `json:"team_id"`
}

// updateUserRequest is the request body for PUT /api/users/{id}.
type updateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      *string `json:"role,omitempty"`
	BranchID  *string `json:"branch_id,omitempty"`
	TeamID    *string `json:"team_id,omitempty"`
}

// managerAssignableRoles is the set of roles a manager may create or assign.
// Managers cannot mint admins or other managers.
var managerAssignableRoles = map[identity.Role]bool{
	identity.RoleTeamLead: true,
	identity.RoleUser:     true,
	identity.RoleAgent:    true,
}

// UserHandler handles user CRUD endpoints.
type UserHandler struct {
	repo        user.Repository
	authService *auth.Service
	recorder    *audit.Recorder
	notifier    *notify.Notifier
	mail        mailer.Mailer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(repo user.Repository, authService *auth.Service, recorder *audit.Recorder, notifier *notify.Notifier, mail mailer.Mailer) *UserHandler {
	return &UserHandler{
		repo:        repo,
		authService: authService,
		recorder:    recorder,
		notifier:    notifier,
		mail:        mail,
	}
}

// List handles GET /api/users. Admins see everyone, managers their branch,
// team leads their team.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := user.ListFilter{Page: page, Limit: limit}

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
			response.OKList(w, "Users retrieved", []userResponse{}, 0, page, limit)
			return
		}
		filter.BranchID = actor.BranchID
	case identity.RoleTeamLead:
		if actor.TeamID == nil {
			response.OKList(w, "Users retrieved", []userResponse{}, 0, page, limit)
			return
		}
		filter.TeamID = actor.TeamID
	default:
		response.Err(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		response.Err(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	items := make([]userResponse, 0, len(result.Users))
	for i := range result.Users {
		items = append(items, toUserResponse(&result.Users[i]))
	}

	response.OKList(w, "Users retrieved", items, result.Total, result.Page, result.Limit)
}

// GetByID handles GET /api/users/{id}.
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	u, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to get user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	if !h.canView(actor, u) {
		response.Err(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	response.OK(w, http.StatusOK, "User retrieved", toUserResponse(u))
}

// canView reports whether the actor may read the target user's record.
func (h *UserHandler) canView(actor *identity.Identity, target *user.User) bool {
	if actor.UserID == target.ID {
		return true
	}
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleManager:
		return target.BranchID != nil && actor.InBranch(*target.BranchID)
	case identity.RoleTeamLead:
		return actor.InTeam(target.TeamID)
	}
	return false
}

// Create handles POST /api/users. Admins and managers only; managers may only
// create team leads, users, and agents inside their own branch.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	// Managers default new accounts into their own branch.
	if actor.Role == identity.RoleManager && req.BranchID == "" && actor.BranchID != nil {
		req.BranchID = actor.BranchID.String()
	}

	fieldErrors := validation.ValidateCreateUserRequest(validation.CreateUserRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		BranchID: req.BranchID,
		TeamID:   req.TeamID,
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	role, _ := identity.ParseRole(req.Role)

	if actor.Role == identity.RoleManager {
		if !managerAssignableRoles[role] {
			response.Err(w, http.StatusForbidden, "Managers can only create team leads, users, and agents")
			return
		}
		if actor.BranchID == nil || req.BranchID != actor.BranchID.String() {
			response.Err(w, http.StatusForbidden, "Managers can only create users in their own branch")
			return
		}
	}

	password := req.Password
	tempPassword := ""
	if password == "" {
		var err error
		tempPassword, err = auth.GenerateTempPassword()
		if err != nil {
			slog.Error("failed to generate temp password", "error", err)
			response.Err(w, http.StatusInternalServerError, "Failed to create user")
			return
		}
		password = tempPassword
	}

	hash, err := h.authService.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		response.Err(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	u := &user.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
	}
	if req.BranchID != "" {
		id := uuid.MustParse(req.BranchID)
		u.BranchID = &id
	}
	if req.TeamID != "" {
		id := uuid.MustParse(req.TeamID)
		u.TeamID = &id
	}

	if err := h.repo.Create(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrDuplicate) {
			response.Err(w, http.StatusConflict, "Username or email already exists")
			return
		}
		slog.Error("failed to create user", "error", err)
		response.Err(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionUserCreated, "user", &u.ID,
		nil, map[string]any{"username": u.Username, "email": u.Email, "role": string(u.Role)},
		clientIP(r), r.UserAgent())

	h.notifier.Push(r.Context(), u.ID, actor.UserID, notify.TypeUserCreated,
		"Welcome to SheetDesk", "Your account has been created.", "user", u.ID)

	if tempPassword != "" {
		if err := h.mail.SendUserCreated(r.Context(), u.Email, u.Username, tempPassword); err != nil {
			slog.Error("failed to send welcome email", "error", err, "email", u.Email)
		}
	}

	response.OK(w, http.StatusCreated, "User created", toUserResponse(u))
}

// Update handles PUT /api/users/{id}. Admins may edit anyone; managers only
// branch members, without escalating past their assignable roles.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	fieldErrors := validation.ValidateUpdateUserRequest(validation.UpdateUserRequest{
		Role:     req.Role,
		BranchID: req.BranchID,
		TeamID:   req.TeamID,
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to get user for update", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	if actor.Role == identity.RoleManager {
		if existing.BranchID == nil || !actor.InBranch(*existing.BranchID) {
			response.Err(w, http.StatusForbidden, "Managers can only edit users in their own branch")
			return
		}
		if req.Role != nil {
			role, _ := identity.ParseRole(*req.Role)
			if !managerAssignableRoles[role] {
				response.Err(w, http.StatusForbidden, "Managers can only assign team lead, user, and agent roles")
				return
			}
		}
		if req.BranchID != nil {
			response.Err(w, http.StatusForbidden, "Managers cannot move users between branches")
			return
		}
	}

	fields := user.UpdateFields{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if req.Role != nil {
		role, _ := identity.ParseRole(*req.Role)
		fields.Role = &role
	}
	if req.BranchID != nil {
		var v *uuid.UUID
		if *req.BranchID != "" {
			id := uuid.MustParse(*req.BranchID)
			v = &id
		}
		fields.BranchID = &v
	}
	if req.TeamID != nil {
		var v *uuid.UUID
		if *req.TeamID != "" {
			id := uuid.MustParse(*req.TeamID)
			v = &id
		}
		fields.TeamID = &v
	}

	updated, err := h.repo.Update(r.Context(), id, fields)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to update user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionUserUpdated, "user", &id,
		map[string]any{"role": string(existing.Role)},
		map[string]any{"role": string(updated.Role)},
		clientIP(r), r.UserAgent())

	response.OK(w, http.StatusOK, "User updated", toUserResponse(updated))
}

// Delete handles DELETE /api/users/{id}. Admin only; soft deactivation.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if id == actor.UserID {
		response.Err(w, http.StatusBadRequest, "Cannot deactivate your own account")
		return
	}

	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to get user for delete", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	if err := h.repo.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to deactivate user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionUserDeleted, "user", &id,
		map[string]any{"username": existing.Username, "email": existing.Email}, nil,
		clientIP(r), r.UserAgent())

	response.OK(w, http.StatusOK, "User deactivated", nil)
}
