package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all credit score routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/credit-score", func(r chi.Router) {
		r.Post("/estimate", h.HandleEstimate)
		r.Get("/history", h.HandleHistory)
		r.Get("/latest", h.HandleLatest)
	})
}
