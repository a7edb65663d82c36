package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smasshh/finmate/internal/modules/expenses"
	"github.com/smasshh/finmate/internal/requestctx"
	testingpkg "github.com/smasshh/finmate/internal/testing"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "finmate")
	t.Cleanup(cleanup)

	svc := expenses.NewService(expenses.NewRepository(db.Conn(), zerolog.Nop()), nil, zerolog.Nop())
	r := chi.NewRouter()
	r.Use(requestctx.Middleware)
	NewHandler(svc, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func do(t *testing.T, router http.Handler, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(requestctx.HeaderUserID, user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestExpenseLifecycle(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, "POST", "/expenses/", "alice", map[string]interface{}{
		"category": "Food", "amount": 42.5, "date": "2024-04-02", "description": "groceries",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	id := int64(created["data"].(map[string]interface{})["id"].(float64))

	w = do(t, router, "PUT", fmt.Sprintf("/expenses/%d", id), "alice", map[string]interface{}{
		"category": "Food", "amount": 50, "date": "2024-04-02",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, "GET", "/expenses/summary?from=2024-04-01&to=2024-04-30", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
	assert.Equal(t, float64(50), summary["data"].(map[string]interface{})["total"])

	w = do(t, router, "DELETE", fmt.Sprintf("/expenses/%d", id), "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, "DELETE", fmt.Sprintf("/expenses/%d", id), "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, "GET", "/expenses/", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list["data"], 0)
}

func TestExpenseValidationErrors(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"negative amount", "POST", "/expenses/", map[string]interface{}{"category": "Food", "amount": -1, "date": "2024-04-02"}},
		{"bad date", "POST", "/expenses/", map[string]interface{}{"category": "Food", "amount": 1, "date": "April 2"}},
		{"bad id", "PUT", "/expenses/abc", map[string]interface{}{"category": "Food", "amount": 1, "date": "2024-04-02"}},
		{"bad range", "GET", "/expenses/?from=2024-05-01&to=2024-04-01", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, "alice", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
