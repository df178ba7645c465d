package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/auth"
	"github.com/spendlens/spendlens/internal/handlers"
	"github.com/spendlens/spendlens/internal/receipt"
)

type noopSaver struct{}

func (noopSaver) Save(context.Context, []receipt.Record) error { return nil }

type noopReader struct{}

func (noopReader) ByUser(context.Context, int64) ([]receipt.Record, error) { return nil, nil }

func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(
		logger, ":0", "server-secret",
		handlers.NewPingHandler(logger),
		handlers.NewFormHandler(logger, noopSaver{}),
		handlers.NewReportHandler(logger, noopReader{}),
	)
}

func TestPingIsPublic(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFormRoutesRequireToken(t *testing.T) {
	s := newTestServer()

	for _, path := range []string{"/form", "/api/report"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Echo().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestFormRouteWithToken(t *testing.T) {
	s := newTestServer()

	token, _, err := auth.GenerateToken(42, "server-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/form?token="+token, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
