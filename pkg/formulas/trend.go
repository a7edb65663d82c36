package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Trend is a least-squares line through a price series indexed 0..n-1.
type Trend struct {
	Intercept float64
	Slope     float64 // price change per bar
	RSquared  float64
	Points    int
}

// FitTrend fits closes (oldest first). It returns nil for fewer than two points.
func FitTrend(closes []float64) *Trend {
	if len(closes) < 2 {
		return nil
	}

	xs := make([]float64, len(closes))
	for i := range xs {
		xs[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(xs, closes, nil, false)
	r2 := stat.RSquared(xs, closes, nil, alpha, beta)
	if math.IsNaN(r2) {
		// flat series: the line explains nothing but fits perfectly
		r2 = 0
	}

	return &Trend{
		Intercept: alpha,
		Slope:     beta,
		RSquared:  math.Max(0, math.Min(1, r2)),
		Points:    len(closes),
	}
}

// Project returns the fitted value `ahead` bars after the last point.
func (t *Trend) Project(ahead int) float64 {
	return t.Intercept + t.Slope*float64(t.Points-1+ahead)
}
