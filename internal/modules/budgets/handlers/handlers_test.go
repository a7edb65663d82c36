package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smasshh/finmate/internal/modules/budgets"
	"github.com/smasshh/finmate/internal/modules/expenses"
	"github.com/smasshh/finmate/internal/requestctx"
	testingpkg "github.com/smasshh/finmate/internal/testing"
)

func setupRouter(t *testing.T) (http.Handler, *expenses.Service) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "finmate")
	t.Cleanup(cleanup)

	logger := zerolog.Nop()
	expenseSvc := expenses.NewService(expenses.NewRepository(db.Conn(), logger), nil, logger)
	monitor := budgets.NewThresholdMonitor(budgets.NewMemoryBaselineStore(), nil, nil, logger)
	svc := budgets.NewService(budgets.NewRepository(db.Conn(), logger), expenseSvc, nil, monitor, logger)

	r := chi.NewRouter()
	r.Use(requestctx.Middleware)
	NewHandler(svc, logger).RegisterRoutes(r)
	return r, expenseSvc
}

func TestBudgetProgressEndpoint(t *testing.T) {
	router, expenseSvc := setupRouter(t)

	body, _ := json.Marshal(map[string]interface{}{
		"category": "Food", "amount": 200, "start_date": "2024-03-01", "end_date": "2024-03-31",
	})
	req := httptest.NewRequest("POST", "/budgets/", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	_, err := expenseSvc.Create(req.Context(), requestctx.DefaultUserID, expenses.Input{Category: "Food", Amount: 180, Date: "2024-03-02"})
	require.NoError(t, err)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/budgets/progress", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data := response["data"].(map[string]interface{})
	list := data["budgets"].([]interface{})
	require.Len(t, list, 1)
	p := list[0].(map[string]interface{})
	assert.Equal(t, float64(180), p["spent"])
	assert.Equal(t, float64(90), p["progress_percentage"])
	assert.Equal(t, true, p["is_approaching"])
	assert.Equal(t, false, p["is_exceeded"])
}

func TestBudgetValidation(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"invalid json", "POST", "/budgets/", "{", http.StatusBadRequest},
		{"start after end", "POST", "/budgets/", `{"category":"Food","amount":10,"start_date":"2024-04-01","end_date":"2024-03-01"}`, http.StatusBadRequest},
		{"bad id", "DELETE", "/budgets/x", "", http.StatusBadRequest},
		{"missing", "DELETE", "/budgets/99", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, bytes.NewReader([]byte(tt.body))))
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
