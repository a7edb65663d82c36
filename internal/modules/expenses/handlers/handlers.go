// Package handlers provides HTTP handlers for expense tracking.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/modules/expenses"
	"github.com/smasshh/finmate/internal/requestctx"
)

// Handler handles expense HTTP requests
type Handler struct {
	service *expenses.Service
	log     zerolog.Logger
}

// NewHandler creates a new expense handler
func NewHandler(service *expenses.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "expenses").Logger(),
	}
}

// HandleList handles GET /api/expenses?from=&to=&category=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(requestctx.UserID(r.Context()), filterFromQuery(r))
	if err != nil {
		h.writeError(w, err, "Failed to list expenses")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": list,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(list),
		},
	})
}

// HandleCreate handles POST /api/expenses
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in expenses.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	e, err := h.service.Create(r.Context(), requestctx.UserID(r.Context()), in)
	if err != nil {
		h.writeError(w, err, "Failed to create expense")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": e,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleUpdate handles PUT /api/expenses/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var in expenses.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	e, err := h.service.Update(r.Context(), requestctx.UserID(r.Context()), id, in)
	if err != nil {
		h.writeError(w, err, "Failed to update expense")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": e,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDelete handles DELETE /api/expenses/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), requestctx.UserID(r.Context()), id); err != nil {
		h.writeError(w, err, "Failed to delete expense")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSummary handles GET /api/expenses/summary?from=&to=
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(requestctx.UserID(r.Context()), filterFromQuery(r))
	if err != nil {
		h.writeError(w, err, "Failed to summarize expenses")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": summary,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func filterFromQuery(r *http.Request) expenses.Filter {
	q := r.URL.Query()
	return expenses.Filter{
		From:     q.Get("from"),
		To:       q.Get("to"),
		Category: q.Get("category"),
	}
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid expense id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Expense not found", http.StatusNotFound)
	default:
		h.log.Error().Err(err).Msg(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
