// Package handlers provides HTTP handlers for the market overview.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/modules/market"
)

// Handler handles market overview HTTP requests
type Handler struct {
	service *market.OverviewService
	log     zerolog.Logger
}

// NewHandler creates a new market handler
func NewHandler(service *market.OverviewService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "market").Logger(),
	}
}

// RegisterRoutes registers all market routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/indices", h.HandleIndices)
		r.Get("/news", h.HandleNews)
		r.Get("/search", h.HandleSearch)
	})
}

// HandleIndices handles GET /api/market/indices.
// The built-in fallback is served with 503 so clients know nothing live was available.
func (h *Handler) HandleIndices(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Indices()
	status := http.StatusOK
	if snap.Fallback {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, map[string]interface{}{
		"data": snap.Indices,
		"metadata": map[string]interface{}{
			"timestamp":  time.Now().Format(time.RFC3339),
			"updated_at": snap.UpdatedAt.Format(time.RFC3339),
			"stale":      snap.Stale,
		},
	})
}

// HandleNews handles GET /api/market/news
func (h *Handler) HandleNews(w http.ResponseWriter, r *http.Request) {
	snap := h.service.News()
	status := http.StatusOK
	if snap.Fallback {
		status = http.StatusServiceUnavailable
	}

	meta := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"stale":     snap.Stale,
		"count":     len(snap.Articles),
	}
	if !snap.UpdatedAt.IsZero() {
		meta["updated_at"] = snap.UpdatedAt.Format(time.RFC3339)
	}
	h.writeJSON(w, status, map[string]interface{}{
		"data":     snap.Articles,
		"metadata": meta,
	})
}

// HandleSearch handles GET /api/market/search?q=apple
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	matches, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrUnavailable):
		h.log.Warn().Err(err).Msg("Symbol search unavailable")
		http.Error(w, "Market data unavailable, try again later", http.StatusServiceUnavailable)
		return
	default:
		h.log.Error().Err(err).Msg("Failed to search symbols")
		http.Error(w, "Failed to search symbols", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": matches,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(matches),
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
