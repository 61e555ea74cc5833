package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetdesk/sheetdesk/internal/api/handler"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := handler.NewHealthHandler(&mockPinger{}, "1.2.3")
		req, w := makeRequest(t, http.MethodGet, "/health", nil, nil, nil)
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		env := parseEnvelope(t, w)
		data := env["data"].(map[string]any)
		assert.Equal(t, "healthy", data["status"])
		assert.Equal(t, "1.2.3", data["version"])
		assert.Equal(t, "connected", data["database"])
	})

	t.Run("database down", func(t *testing.T) {
		h := handler.NewHealthHandler(&mockPinger{err: errors.New("connection refused")}, "1.2.3")
		req, w := makeRequest(t, http.MethodGet, "/health", nil, nil, nil)
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		env := parseEnvelope(t, w)
		data := env["data"].(map[string]any)
		assert.Equal(t, "degraded", data["status"])
		assert.Equal(t, "unreachable", data["database"])
	})
}
