// Package events provides the in-process event bus and its sinks.
package events

import (
	"time"

	"github.com/smasshh/finmate/internal/domain"
)

// Event type names as they appear on the wire.
const (
	BudgetThresholdCrossed = "budget_threshold_crossed"
	CreditScoreCalculated  = "credit_score_calculated"
	ExpenseRecorded        = "expense_recorded"
	TradeExecuted          = "trade_executed"
	PredictionCreated      = "prediction_created"
	MarketOverviewUpdated  = "market_overview_updated"
	SettingsChanged        = "settings_changed"
	SystemStatusChanged    = "system_status_changed"
)

// Event is one published event. UserID is empty for broadcast events.
type Event struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Data      domain.EventData `json:"data"`
}

// Broadcast reports whether the event targets every user.
func (e Event) Broadcast() bool {
	return e.UserID == ""
}
