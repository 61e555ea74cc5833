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
	"github.com/sheetdesk/sheetdesk/internal/auth"
	"github.com/sheetdesk/sheetdesk/internal/user"
)

// loginRequest is the request body for POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the API representation of a user record.
type userResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      string  `json:"role"`
	BranchID  *string `json:"branch_id"`
	TeamID    *string `json:"team_id"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// toUserResponse converts a user model to its API response representation.
func toUserResponse(u *user.User) userResponse {
	resp := userResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt: u.UpdatedAt.UTC().Format(timeFormat),
	}
	if u.BranchID != nil {
		s := u.BranchID.String()
		resp.BranchID = &s
	}
	if u.TeamID != nil {
		s := u.TeamID.String()
		resp.TeamID = &s
	}
	return resp
}

// AuthHandler handles login, token refresh, and the current-user endpoint.
type AuthHandler struct {
	service  *auth.Service
	userRepo user.Repository
	recorder *audit.Recorder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *auth.Service, userRepo user.Repository, recorder *audit.Recorder) *AuthHandler {
	return &AuthHandler{
		service:  service,
		userRepo: userRepo,
		recorder: recorder,
	}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	u, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		slog.Error("login failed", "error", err)
		response.Err(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.recorder.Record(r.Context(), u.ID, audit.ActionLogin, "user", &u.ID,
		nil, map[string]any{"email": u.Email}, clientIP(r), r.UserAgent())

	response.OK(w, http.StatusOK, "Login successful", map[string]any{
		"token": token,
		"user":  toUserResponse(u),
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	u, err := h.userRepo.GetByID(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to load current user", "error", err, "id", id.UserID)
		response.Err(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	response.OK(w, http.StatusOK, "Current user", toUserResponse(u))
}

// Refresh handles POST /api/auth/refresh. The authenticated user receives a
// fresh token with a full expiry window.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	u, err := h.userRepo.GetByID(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to load user for refresh", "error", err, "id", id.UserID)
		response.Err(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	token, err := h.service.IssueToken(u)
	if err != nil {
		slog.Error("failed to issue token", "error", err, "id", u.ID)
		response.Err(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	response.OK(w, http.StatusOK, "Token refreshed", map[string]any{"token": token})
}
