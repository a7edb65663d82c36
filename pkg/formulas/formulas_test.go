package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	assert.Nil(t, CalculateSMA([]float64{1, 2}, 3))

	sma := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NotNil(t, sma)
	assert.InDelta(t, 4.0, *sma, 1e-9)
}

func TestCalculateRSI(t *testing.T) {
	assert.Nil(t, CalculateRSI(linear(14, 100, 1), 14))

	rising := CalculateRSI(linear(30, 100, 1), 14)
	require.NotNil(t, rising)
	assert.InDelta(t, 100.0, *rising, 1e-9)

	falling := CalculateRSI(linear(30, 100, -1), 14)
	require.NotNil(t, falling)
	assert.InDelta(t, 0.0, *falling, 1e-9)
}

func TestFitTrend(t *testing.T) {
	assert.Nil(t, FitTrend([]float64{5}))

	tr := FitTrend(linear(10, 50, 2))
	require.NotNil(t, tr)
	assert.InDelta(t, 50, tr.Intercept, 1e-9)
	assert.InDelta(t, 2, tr.Slope, 1e-9)
	assert.InDelta(t, 1, tr.RSquared, 1e-9)
	assert.InDelta(t, 70, tr.Project(1), 1e-9)
}

func TestFitTrend_Flat(t *testing.T) {
	tr := FitTrend([]float64{10, 10, 10, 10})
	require.NotNil(t, tr)
	assert.InDelta(t, 0, tr.Slope, 1e-9)
	assert.Equal(t, 0.0, tr.RSquared)
	assert.InDelta(t, 10, tr.Project(3), 1e-9)
}
