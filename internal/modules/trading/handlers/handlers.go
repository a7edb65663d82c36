// Package handlers provides HTTP handlers for paper trading.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/modules/trading"
	"github.com/smasshh/finmate/internal/requestctx"
)

// TradingHandlers contains HTTP handlers for the trading API
type TradingHandlers struct {
	service *trading.Service
	log     zerolog.Logger
}

// NewTradingHandlers creates a new trading handlers instance
func NewTradingHandlers(service *trading.Service, log zerolog.Logger) *TradingHandlers {
	return &TradingHandlers{
		service: service,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

// HandleGetTrades handles GET /api/trades?limit=N
func (h *TradingHandlers) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	trades, err := h.service.History(requestctx.UserID(r.Context()), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get trades")
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": trades,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(trades),
		},
	})
}

// HandleExecuteTrade handles POST /api/trades with {"symbol","side","quantity"}
func (h *TradingHandlers) HandleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req trading.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.ExecuteTrade(r.Context(), requestctx.UserID(r.Context()), req, trading.SourceManual)
	if err != nil {
		h.writeTradeError(w, err)
		return
	}
	h.writeResult(w, result)
}

// HandleExecuteCommand handles POST /api/trades/command with {"command": "buy 5 shares of AAPL"}
func (h *TradingHandlers) HandleExecuteCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.ExecuteCommand(r.Context(), requestctx.UserID(r.Context()), req.Command)
	if errors.Is(err, trading.ErrInvalidCommand) {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
			"help":  trading.CommandHelp,
		})
		return
	}
	if err != nil {
		h.writeTradeError(w, err)
		return
	}
	h.writeResult(w, result)
}

// HandleGetPortfolio handles GET /api/portfolio
func (h *TradingHandlers) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Portfolio(r.Context(), requestctx.UserID(r.Context()))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get portfolio")
		http.Error(w, "Failed to get portfolio", http.StatusInternalServerError)
		return
	}

	unavailable := 0
	for _, holding := range p.Holdings {
		if holding.PriceUnavailable {
			unavailable++
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": p,
		"metadata": map[string]interface{}{
			"timestamp":   time.Now().Format(time.RFC3339),
			"unavailable": unavailable,
		},
	})
}

func (h *TradingHandlers) writeResult(w http.ResponseWriter, result *trading.TradeResult) {
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeTradeError maps rejections to 4xx and market outages to 503
func (h *TradingHandlers) writeTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, trading.ErrInsufficientFunds), errors.Is(err, trading.ErrInsufficientHoldings):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Unknown symbol", http.StatusNotFound)
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrUnavailable):
		h.log.Warn().Err(err).Msg("Market data unavailable for trade")
		http.Error(w, "Market data unavailable, try again later", http.StatusServiceUnavailable)
	default:
		h.log.Error().Err(err).Msg("Failed to execute trade")
		http.Error(w, "Failed to execute trade", http.StatusInternalServerError)
	}
}

func (h *TradingHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
