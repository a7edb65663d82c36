// Package handlers provides HTTP handlers for user settings.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/modules/settings"
	"github.com/smasshh/finmate/internal/requestctx"
)

// Handler provides HTTP handlers for settings endpoints
type Handler struct {
	service *settings.Service
	log     zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(service *settings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "settings").Logger(),
	}
}

// RegisterRoutes registers settings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Put("/", h.HandleUpdate)
		r.Get("/definitions", h.HandleDefinitions)
	})
}

// HandleGetAll handles GET /api/settings
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.GetAll(requestctx.UserID(r.Context()))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get all settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": values,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleUpdate handles PUT /api/settings with a {"key": value} object
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		http.Error(w, "No settings provided", http.StatusBadRequest)
		return
	}

	values := make(map[string]string, len(body))
	for key, raw := range body {
		switch v := raw.(type) {
		case float64:
			values[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case string:
			values[key] = v
		default:
			http.Error(w, fmt.Sprintf("setting %s must be a number", key), http.StatusBadRequest)
			return
		}
	}

	updated, err := h.service.Update(requestctx.UserID(r.Context()), values)
	if errors.Is(err, domain.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to update settings")
		http.Error(w, "Failed to update settings", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": updated,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDefinitions handles GET /api/settings/definitions
func (h *Handler) HandleDefinitions(w http.ResponseWriter, r *http.Request) {
	defs := make([]settings.Definition, 0, len(settings.Definitions))
	for _, key := range settings.Keys() {
		defs = append(defs, settings.Definitions[key])
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": defs,
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
