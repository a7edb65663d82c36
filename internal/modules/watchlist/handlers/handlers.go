// Package handlers provides HTTP handlers for the stock watchlist.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/modules/watchlist"
	"github.com/smasshh/finmate/internal/requestctx"
)

// Handler handles watchlist HTTP requests
type Handler struct {
	service *watchlist.Service
	log     zerolog.Logger
}

// NewHandler creates a new watchlist handler
func NewHandler(service *watchlist.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "watchlist").Logger(),
	}
}

// RegisterRoutes registers all watchlist routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/watchlist", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleAdd)
		r.Get("/quotes", h.HandleQuotes)
		r.Delete("/{symbol}", h.HandleRemove)
	})
}

// HandleList handles GET /api/watchlist
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(requestctx.UserID(r.Context()))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list watchlist")
		http.Error(w, "Failed to list watchlist", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": entries,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(entries),
		},
	})
}

// HandleAdd handles POST /api/watchlist with {"symbol": "AAPL", "name": "Apple Inc."}
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.service.Add(requestctx.UserID(r.Context()), req.Symbol, req.Name)
	if errors.Is(err, domain.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to add to watchlist")
		http.Error(w, "Failed to add to watchlist", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": entry,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleRemove handles DELETE /api/watchlist/{symbol}
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	err := h.service.Remove(requestctx.UserID(r.Context()), chi.URLParam(r, "symbol"))
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Symbol not in watchlist", http.StatusNotFound)
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to remove from watchlist")
		http.Error(w, "Failed to remove from watchlist", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleQuotes handles GET /api/watchlist/quotes
func (h *Handler) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.service.Quotes(r.Context(), requestctx.UserID(r.Context()))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get watchlist quotes")
		http.Error(w, "Failed to get watchlist quotes", http.StatusInternalServerError)
		return
	}

	unavailable := 0
	for _, q := range quotes {
		if q.Unavailable {
			unavailable++
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": quotes,
		"metadata": map[string]interface{}{
			"timestamp":   time.Now().Format(time.RFC3339),
			"count":       len(quotes),
			"unavailable": unavailable,
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
