package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smasshh/finmate/internal/config"
	"github.com/smasshh/finmate/internal/di"
	"github.com/smasshh/finmate/internal/requestctx"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:        dir,
		DatabasePath:   filepath.Join(dir, "finmate.db"),
		Port:           8080,
		DevMode:        true,
		AllowedOrigins: []string{"http://localhost:5173"},
		LLM: config.LLMConfig{
			BreakerMaxFailures:  3,
			BreakerResetTimeout: time.Minute,
		},
		MarketData: config.MarketDataConfig{
			BaseURL:    "http://127.0.0.1:1/query",
			DailyLimit: 25,
			Timeout:    time.Second,
		},
		IndicesSchedule:     "@every 5m",
		NewsSchedule:        "@every 10m",
		CleanupSchedule:     "0 30 3 * * *",
		BackupSchedule:      "0 0 4 * * *",
		MaintenanceSchedule: "0 0 2 * * *",
		DefaultStartingCash: 100000,
	}

	container, err := di.Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	return New(Config{Log: zerolog.Nop(), Config: cfg, Container: container})
}

func TestServer_Routes(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"settings", http.MethodGet, "/api/settings", http.StatusOK},
		{"expenses", http.MethodGet, "/api/expenses", http.StatusOK},
		{"budget progress", http.MethodGet, "/api/budgets/progress", http.StatusOK},
		{"watchlist", http.MethodGet, "/api/watchlist", http.StatusOK},
		{"trades", http.MethodGet, "/api/trades", http.StatusOK},
		{"portfolio", http.MethodGet, "/api/portfolio", http.StatusOK},
		{"predictions", http.MethodGet, "/api/predictions", http.StatusOK},
		{"credit score history", http.MethodGet, "/api/credit-score/history", http.StatusOK},
		{"dashboard", http.MethodGet, "/api/dashboard", http.StatusOK},
		{"system status", http.MethodGet, "/api/system/status", http.StatusOK},
		{"system jobs", http.MethodGet, "/api/system/jobs", http.StatusOK},
		{"unknown", http.MethodGet, "/api/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_RejectsMalformedUserID(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.Header.Set(requestctx.HeaderUserID, "not a valid id!")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", requestctx.HeaderUserID)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.EqualFold(rec.Header().Get("Access-Control-Allow-Headers"), requestctx.HeaderUserID))
}

func TestServer_MetricsCountRequests(t *testing.T) {
	s := setupTestServer(t)

	s.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `route="/api/settings"`)
}
