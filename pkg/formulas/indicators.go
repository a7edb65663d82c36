// Package formulas holds the technical indicators used for price predictions.
package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateSMA returns the latest simple moving average over length closes
// (oldest first), or nil if there is not enough data.
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	return last(sma)
}

// CalculateRSI returns the latest Relative Strength Index (0-100), or nil if
// there is not enough data.
//
//	RSI = 100 - (100 / (1 + RS)), RS = average gain / average loss
func CalculateRSI(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length+1 {
		return nil
	}

	rsi := talib.Rsi(closes, length)
	return last(rsi)
}

func last(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
