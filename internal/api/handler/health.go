package handler

import (
	"context"
	"net/http"

	"github.com/sheetdesk/sheetdesk/internal/api/response"
)

// DBPinger checks database connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      DBPinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DBPinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

type healthData struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data := healthData{
		Status:   "healthy",
		Version:  h.version,
		Database: "connected",
	}

	if err := h.db.Ping(r.Context()); err != nil {
		data.Status = "degraded"
		data.Database = "unreachable"
	}

	response.OK(w, http.StatusOK, "Health check", data)
}
