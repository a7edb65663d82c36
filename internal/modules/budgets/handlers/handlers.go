// Package handlers provides HTTP handlers for budgets.
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
	"github.com/smasshh/finmate/internal/modules/budgets"
	"github.com/smasshh/finmate/internal/requestctx"
)

// Handler handles budget HTTP requests
type Handler struct {
	service *budgets.Service
	log     zerolog.Logger
}

// NewHandler creates a new budget handler
func NewHandler(service *budgets.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "budgets").Logger(),
	}
}

// RegisterRoutes registers all budget routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/budgets", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/progress", h.HandleProgress)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleList handles GET /api/budgets
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(requestctx.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err, "Failed to list budgets")
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

// HandleCreate handles POST /api/budgets
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in budgets.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	b, err := h.service.Create(r.Context(), requestctx.UserID(r.Context()), in)
	if err != nil {
		h.writeError(w, err, "Failed to create budget")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": b,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleUpdate handles PUT /api/budgets/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid budget id", http.StatusBadRequest)
		return
	}

	var in budgets.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	b, err := h.service.Update(r.Context(), requestctx.UserID(r.Context()), id, in)
	if err != nil {
		h.writeError(w, err, "Failed to update budget")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": b,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDelete handles DELETE /api/budgets/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid budget id", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), requestctx.UserID(r.Context()), id); err != nil {
		h.writeError(w, err, "Failed to delete budget")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleProgress handles GET /api/budgets/progress
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Progress(r.Context(), requestctx.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err, "Failed to compute budget progress")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Budget not found", http.StatusNotFound)
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
