package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes
func (h *TradingHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleGetTrades)
		r.Post("/", h.HandleExecuteTrade)
		r.Post("/command", h.HandleExecuteCommand)
	})
	r.Get("/portfolio", h.HandleGetPortfolio)
}
