// Package handlers provides HTTP handlers for price predictions.
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
	"github.com/smasshh/finmate/internal/modules/predictions"
	"github.com/smasshh/finmate/internal/requestctx"
)

// Handler handles prediction HTTP requests
type Handler struct {
	service *predictions.Service
	log     zerolog.Logger
}

// NewHandler creates a new predictions handler
func NewHandler(service *predictions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "predictions").Logger(),
	}
}

// RegisterRoutes registers all prediction routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/predictions", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/{symbol}", h.HandlePredict)
	})
}

// HandleList handles GET /api/predictions?symbol=AAPL&limit=N
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	list, err := h.service.List(requestctx.UserID(r.Context()), r.URL.Query().Get("symbol"), limit)
	if errors.Is(err, domain.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list predictions")
		http.Error(w, "Failed to list predictions", http.StatusInternalServerError)
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

// HandlePredict handles POST /api/predictions/{symbol}?horizon=N
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	horizon := 0
	if v := r.URL.Query().Get("horizon"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "horizon must be an integer", http.StatusBadRequest)
			return
		}
		horizon = parsed
	}

	p, err := h.service.Predict(r.Context(), requestctx.UserID(r.Context()), chi.URLParam(r, "symbol"), horizon)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Unknown symbol", http.StatusNotFound)
		return
	case errors.Is(err, predictions.ErrInsufficientHistory):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrUnavailable):
		h.log.Warn().Err(err).Msg("Market data unavailable for prediction")
		http.Error(w, "Market data unavailable, try again later", http.StatusServiceUnavailable)
		return
	default:
		h.log.Error().Err(err).Msg("Failed to create prediction")
		http.Error(w, "Failed to create prediction", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": p,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
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
