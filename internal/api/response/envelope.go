package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Pagination describes the page window of a list response.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// Envelope is the standard API response wrapper.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Errors     any         `json:"errors,omitempty"`
}

// NewPagination computes the page count for a window over total items.
func NewPagination(total, page, limit int) *Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return &Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}
}

// JSON writes a JSON response with the given status code and envelope.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// OK writes a successful JSON response.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// OKList writes a successful list JSON response with pagination.
func OKList(w http.ResponseWriter, message string, data any, total, page, limit int) {
	JSON(w, http.StatusOK, Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: NewPagination(total, page, limit),
	})
}

// Err writes an error JSON response.
func Err(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{
		Success: false,
		Message: message,
	})
}

// ErrFields writes a validation error response carrying per-field errors.
func ErrFields(w http.ResponseWriter, message string, fields any) {
	JSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: message,
		Errors:  fields,
	})
}
