package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sheetdesk/sheetdesk/internal/access"
	"github.com/sheetdesk/sheetdesk/internal/api/middleware"
	"github.com/sheetdesk/sheetdesk/internal/api/response"
	"github.com/sheetdesk/sheetdesk/internal/api/validation"
	"github.com/sheetdesk/sheetdesk/internal/audit"
	"github.com/sheetdesk/sheetdesk/internal/cell"
	"github.com/sheetdesk/sheetdesk/internal/share"
	"github.com/sheetdesk/sheetdesk/internal/sheet"
)

// saveCellRequest is the request body for POST /api/sheets/{id}/cells.
type saveCellRequest struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Value    string `json:"value"`
	DataType string `json:"data_type"`
}

// cellResponse is the API representation of a cell record.
type cellResponse struct {
	ID             string  `json:"id"`
	SheetID        string  `json:"sheet_id"`
	Row            int     `json:"row"`
	Col            int     `json:"col"`
	Value          string  `json:"value"`
	DataType       string  `json:"data_type"`
	LastModifiedBy *string `json:"last_modified_by"`
	LastModifiedAt string  `json:"last_modified_at"`
}

// toCellResponse converts a cell model to its API response representation.
func toCellResponse(c *cell.Cell) cellResponse {
	resp := cellResponse{
		ID:             c.ID.String(),
		SheetID:        c.SheetID.String(),
		Row:            c.Row,
		Col:            c.Col,
		Value:          c.Value,
		DataType:       c.DataType,
		LastModifiedAt: c.LastModifiedAt.UTC().Format(timeFormat),
	}
	if c.LastModifiedBy != nil {
		s := c.LastModifiedBy.String()
		resp.LastModifiedBy = &s
	}
	return resp
}

// CellHandler handles cell endpoints under /api/sheets/{id}/cells.
type CellHandler struct {
	repo      cell.Repository
	sheetRepo sheet.Repository
	shareRepo share.Repository
	recorder  *audit.Recorder
}

// NewCellHandler creates a new CellHandler.
func NewCellHandler(repo cell.Repository, sheetRepo sheet.Repository, shareRepo share.Repository, recorder *audit.Recorder) *CellHandler {
	return &CellHandler{
		repo:      repo,
		sheetRepo: sheetRepo,
		shareRepo: shareRepo,
		recorder:  recorder,
	}
}

// resolveSheet loads the sheet and the actor's grant, rejecting not-found
// before any permission decision. Reports false after writing a response.
func (h *CellHandler) resolveSheet(w http.ResponseWriter, r *http.Request) (*sheet.Sheet, *share.Share, bool) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return nil, nil, false
	}

	s, err := h.sheetRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sheet.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Sheet not found")
			return nil, nil, false
		}
		slog.Error("failed to get sheet", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "Failed to load sheet")
		return nil, nil, false
	}

	actor := middleware.GetIdentity(r.Context())
	grant, err := grantFor(r.Context(), h.shareRepo, id, actor.UserID)
	if err != nil {
		slog.Error("failed to look up share", "error", err, "sheetId", id)
		response.Err(w, http.StatusInternalServerError, "Failed to load sheet")
		return nil, nil, false
	}

	return s, grant, true
}

// List handles GET /api/sheets/{id}/cells, one page ordered by (row, col).
func (h *CellHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	s, grant, ok := h.resolveSheet(w, r)
	if !ok {
		return
	}

	if !access.CanAccessSheet(*actor, s, grant, time.Now()) {
		response.Err(w, http.StatusForbidden, "You do not have access to this sheet")
		return
	}

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	result, err := h.repo.List(r.Context(), s.ID, page, limit)
	if err != nil {
		slog.Error("failed to list cells", "error", err, "sheetId", s.ID)
		response.Err(w, http.StatusInternalServerError, "Failed to list cells")
		return
	}

	items := make([]cellResponse, 0, len(result.Cells))
	for i := range result.Cells {
		items = append(items, toCellResponse(&result.Cells[i]))
	}

	response.OKList(w, "Cells retrieved", items, result.Total, result.Page, result.Limit)
}

// Save handles POST /api/sheets/{id}/cells. A non-empty value is written
// through a single conditional upsert: create-if-absent, overwrite otherwise.
// A value that is empty after trimming removes the cell row instead; saving
// an empty value into an absent cell is a no-op.
func (h *CellHandler) Save(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req saveCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON")
		return
	}

	s, grant, ok := h.resolveSheet(w, r)
	if !ok {
		return
	}

	fieldErrors := validation.ValidateSaveCellRequest(validation.SaveCellRequest{
		Row:          req.Row,
		Col:          req.Col,
		DataType:     req.DataType,
		SheetRows:    s.Rows,
		SheetColumns: s.Columns,
	})
	if len(fieldErrors) > 0 {
		response.ErrFields(w, "Input validation failed", fieldErrors)
		return
	}

	if !access.CanEditCell(*actor, s, grant, time.Now()) {
		response.Err(w, http.StatusForbidden, "You do not have permission to edit cells in this sheet")
		return
	}

	if strings.TrimSpace(req.Value) == "" {
		h.deleteCell(w, r, s, req.Row, req.Col)
		return
	}

	// Prior value for the audit trail. A concurrent writer can slip between
	// this read and the upsert; the trail is best-effort, the write is not.
	var oldValues map[string]any
	existing, err := h.repo.GetByKey(r.Context(), s.ID, req.Row, req.Col)
	if err != nil && !errors.Is(err, cell.ErrNotFound) {
		slog.Error("failed to read cell", "error", err, "sheetId", s.ID)
		response.Err(w, http.StatusInternalServerError, "Failed to save cell")
		return
	}
	if existing != nil {
		oldValues = map[string]any{"value": existing.Value}
	}

	dataType := req.DataType
	if dataType == "" {
		dataType = "text"
	}

	c := &cell.Cell{
		SheetID:        s.ID,
		Row:            req.Row,
		Col:            req.Col,
		Value:          req.Value,
		DataType:       dataType,
		LastModifiedBy: &actor.UserID,
	}

	created, err := h.repo.Upsert(r.Context(), c)
	if err != nil {
		slog.Error("failed to save cell", "error", err, "sheetId", s.ID, "row", req.Row, "col", req.Col)
		response.Err(w, http.StatusInternalServerError, "Failed to save cell")
		return
	}

	action := audit.ActionCellUpdated
	status := http.StatusOK
	message := "Cell updated"
	if created {
		action = audit.ActionCellCreated
		status = http.StatusCreated
		message = "Cell created"
	}

	h.recorder.Record(r.Context(), actor.UserID, action, "cell", &c.ID,
		oldValues,
		map[string]any{"value": c.Value, "row": c.Row, "col": c.Col},
		clientIP(r), r.UserAgent())

	response.OK(w, status, message, toCellResponse(c))
}

// Delete handles DELETE /api/sheets/{id}/cells/{row}/{col}.
func (h *CellHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r.Context())

	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || row < 0 {
		response.Err(w, http.StatusBadRequest, "row must be a non-negative integer")
		return
	}
	col, err := strconv.Atoi(chi.URLParam(r, "col"))
	if err != nil || col < 0 {
		response.Err(w, http.StatusBadRequest, "col must be a non-negative integer")
		return
	}

	s, grant, ok := h.resolveSheet(w, r)
	if !ok {
		return
	}

	if !access.CanEditCell(*actor, s, grant, time.Now()) {
		response.Err(w, http.StatusForbidden, "You do not have permission to edit cells in this sheet")
		return
	}

	h.deleteCell(w, r, s, row, col)
}

// deleteCell removes the cell at (row, col), treating an already-absent cell
// as success. Permission has been checked by the caller.
func (h *CellHandler) deleteCell(w http.ResponseWriter, r *http.Request, s *sheet.Sheet, row, col int) {
	actor := middleware.GetIdentity(r.Context())

	removed, err := h.repo.DeleteByKey(r.Context(), s.ID, row, col)
	if err != nil {
		if errors.Is(err, cell.ErrNotFound) {
			response.OK(w, http.StatusOK, "Cell cleared", nil)
			return
		}
		slog.Error("failed to delete cell", "error", err, "sheetId", s.ID, "row", row, "col", col)
		response.Err(w, http.StatusInternalServerError, "Failed to delete cell")
		return
	}

	h.recorder.Record(r.Context(), actor.UserID, audit.ActionCellDeleted, "cell", &removed.ID,
		map[string]any{"value": removed.Value, "row": removed.Row, "col": removed.Col}, nil,
		clientIP(r), r.UserAgent())

	response.OK(w, http.StatusOK, "Cell cleared", nil)
}
