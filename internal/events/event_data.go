package events

// BudgetThresholdCrossedData is emitted once when a budget first enters the
// approaching or exceeded state.
type BudgetThresholdCrossedData struct {
	BudgetID   int64   `json:"budget_id"`
	Category   string  `json:"category"`
	Level      string  `json:"level"` // "approaching" or "exceeded"
	Spent      float64 `json:"spent"`
	Budget     float64 `json:"budget"`
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message"`
}

// EventType returns the event type for BudgetThresholdCrossedData
func (d *BudgetThresholdCrossedData) EventType() string {
	return BudgetThresholdCrossed
}

// CreditScoreCalculatedData contains data for CreditScoreCalculated events
type CreditScoreCalculatedData struct {
	Score    int    `json:"score"`
	Category string `json:"category"`
	Source   string `json:"recommendation_source"`
	Saved    bool   `json:"saved"`
}

// EventType returns the event type for CreditScoreCalculatedData
func (d *CreditScoreCalculatedData) EventType() string {
	return CreditScoreCalculated
}

// ExpenseRecordedData contains data for ExpenseRecorded events
type ExpenseRecordedData struct {
	ExpenseID int64   `json:"expense_id"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Action    string  `json:"action"` // created, updated, deleted
}

// EventType returns the event type for ExpenseRecordedData
func (d *ExpenseRecordedData) EventType() string {
	return ExpenseRecorded
}

// TradeExecutedData contains data for TradeExecuted events
type TradeExecutedData struct {
	TradeID  int64   `json:"trade_id"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Cash     float64 `json:"cash"`
	Source   string  `json:"source,omitempty"`
}

// EventType returns the event type for TradeExecutedData
func (d *TradeExecutedData) EventType() string {
	return TradeExecuted
}

// PredictionCreatedData contains data for PredictionCreated events
type PredictionCreatedData struct {
	PredictionID   string  `json:"prediction_id"`
	Symbol         string  `json:"symbol"`
	Trend          string  `json:"trend"`
	PredictedPrice float64 `json:"predicted_price"`
	Confidence     float64 `json:"confidence"`
}

// EventType returns the event type for PredictionCreatedData
func (d *PredictionCreatedData) EventType() string {
	return PredictionCreated
}

// MarketOverviewUpdatedData is broadcast after a scheduled refresh.
type MarketOverviewUpdatedData struct {
	Part  string `json:"part"` // "indices" or "news"
	Count int    `json:"count"`
	Stale bool   `json:"stale"`
}

// EventType returns the event type for MarketOverviewUpdatedData
func (d *MarketOverviewUpdatedData) EventType() string {
	return MarketOverviewUpdated
}

// SettingsChangedData contains data for SettingsChanged events
type SettingsChangedData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EventType returns the event type for SettingsChangedData
func (d *SettingsChangedData) EventType() string {
	return SettingsChanged
}

// SystemStatusChangedData is broadcast when the overall health or a dependency state changes.
type SystemStatusChangedData struct {
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Breaker string `json:"breaker,omitempty"`
}

// EventType returns the event type for SystemStatusChangedData
func (d *SystemStatusChangedData) EventType() string {
	return SystemStatusChanged
}
