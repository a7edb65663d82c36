package predictions

import (
	"fmt"
	"math"
	"sort"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/pkg/formulas"
)

// Analyze runs SMA, RSI and a least-squares projection over bars (any order).
//
// The trend is bullish when the projected move exceeds the neutral band and the
// price sits at or above its SMA; bearish is the mirror image. Confidence grows
// with the fit's R² and drops when RSI says the move is already stretched.
func Analyze(bars []domain.DailyBar, horizonDays int) (*Analysis, error) {
	if horizonDays < 1 || horizonDays > MaxHorizonDays {
		return nil, fmt.Errorf("%w: horizon must be between 1 and %d days", domain.ErrInvalidInput, MaxHorizonDays)
	}

	closes := closesOldestFirst(bars)
	if len(closes) < minHistory {
		return nil, fmt.Errorf("%w: need %d daily closes, have %d", ErrInsufficientHistory, minHistory, len(closes))
	}

	current := closes[len(closes)-1]
	sma := formulas.CalculateSMA(closes, smaPeriod)
	rsi := formulas.CalculateRSI(closes, rsiPeriod)
	fit := formulas.FitTrend(closes[len(closes)-regressionWindow:])

	predicted := math.Max(0, fit.Project(horizonDays))
	movePercent := fit.Slope * float64(horizonDays) / current * 100

	trend := TrendNeutral
	switch {
	case movePercent > neutralBandPercent && (sma == nil || current >= *sma):
		trend = TrendBullish
	case movePercent < -neutralBandPercent && (sma == nil || current <= *sma):
		trend = TrendBearish
	}

	return &Analysis{
		CurrentPrice:   round(current, 2),
		PredictedPrice: round(predicted, 2),
		ChangePercent:  round((predicted-current)/current*100, 2),
		Trend:          trend,
		Confidence:     confidence(trend, fit.RSquared, rsi),
		SMA:            roundPtr(sma),
		RSI:            roundPtr(rsi),
		Slope:          round(fit.Slope, 4),
		RSquared:       round(fit.RSquared, 4),
		HorizonDays:    horizonDays,
	}, nil
}

func confidence(trend string, r2 float64, rsi *float64) float64 {
	if trend == TrendNeutral {
		// a strong fit with a flat slope is a confident "neutral"
		return round(0.4+0.2*r2, 2)
	}

	c := 0.5 + 0.4*r2
	if rsi != nil && ((trend == TrendBullish && *rsi >= 70) || (trend == TrendBearish && *rsi <= 30)) {
		c -= 0.15
	}
	return round(math.Max(0.05, math.Min(0.95, c)), 2)
}

func closesOldestFirst(bars []domain.DailyBar) []float64 {
	sorted := make([]domain.DailyBar, 0, len(bars))
	for _, b := range bars {
		if b.Close > 0 && !math.IsNaN(b.Close) {
			sorted = append(sorted, b)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	closes := make([]float64, len(sorted))
	for i, b := range sorted {
		closes[i] = b.Close
	}
	return closes
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, 2)
	return &r
}
