// Package predictions projects short-term price direction from daily closes.
package predictions

import (
	"errors"
	"time"
)

// Trend labels
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)

const (
	smaPeriod = 20
	rsiPeriod = 14

	// closes fed to the regression
	regressionWindow = 30
	// minimum bars for both indicators and a meaningful fit
	minHistory = regressionWindow

	// projected move (percent of price) below which the trend is neutral
	neutralBandPercent = 0.25

	DefaultHorizonDays = 1
	MaxHorizonDays     = 30
)

// ErrInsufficientHistory is returned when a symbol has too few daily bars.
var ErrInsufficientHistory = errors.New("insufficient price history")

// Analysis is the result of running the indicators over a series.
type Analysis struct {
	CurrentPrice   float64  `json:"current_price"`
	PredictedPrice float64  `json:"predicted_price"`
	ChangePercent  float64  `json:"change_percent"`
	Trend          string   `json:"trend"`
	Confidence     float64  `json:"confidence"`
	SMA            *float64 `json:"sma,omitempty"`
	RSI            *float64 `json:"rsi,omitempty"`
	Slope          float64  `json:"slope"`
	RSquared       float64  `json:"r_squared"`
	HorizonDays    int      `json:"horizon_days"`
}

// Prediction is a stored analysis for one symbol.
type Prediction struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Symbol         string    `json:"symbol"`
	CurrentPrice   float64   `json:"current_price"`
	PredictedPrice float64   `json:"predicted_price"`
	Trend          string    `json:"trend"`
	Confidence     float64   `json:"confidence"`
	SMA            *float64  `json:"sma,omitempty"`
	RSI            *float64  `json:"rsi,omitempty"`
	HorizonDays    int       `json:"horizon_days"`
	CreatedAt      time.Time `json:"created_at"`
}
