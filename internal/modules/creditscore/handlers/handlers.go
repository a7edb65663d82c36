// Package handlers provides HTTP handlers for credit score estimation.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/modules/creditscore"
	"github.com/smasshh/finmate/internal/requestctx"
)

// Handler handles credit score HTTP requests
type Handler struct {
	service *creditscore.Service
	log     zerolog.Logger
}

// NewHandler creates a new credit score handler
func NewHandler(service *creditscore.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "credit_score").Logger(),
	}
}

// HandleEstimate handles POST /api/credit-score/estimate
func (h *Handler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	var profile creditscore.FinancialProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		h.log.Debug().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	estimate := h.service.Estimate(r.Context(), requestctx.UserID(r.Context()), profile)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": estimate,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleHistory handles GET /api/credit-score/history?limit=N
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.service.History(requestctx.UserID(r.Context()), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get credit score history")
		http.Error(w, "Failed to get credit score history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": records,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(records),
		},
	})
}

// HandleLatest handles GET /api/credit-score/latest
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Latest(requestctx.UserID(r.Context()))
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "No credit score calculated yet", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get latest credit score")
		http.Error(w, "Failed to get latest credit score", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": record,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
