package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateReturns(t *testing.T) {
	prices := []float64{100, 110, 99}
	returns := CalculateReturns(prices)

	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)
}

func TestCalculateReturns_TooShort(t *testing.T) {
	assert.Empty(t, CalculateReturns([]float64{100}))
	assert.Empty(t, CalculateReturns(nil))
}

func TestAnnualizedReturn(t *testing.T) {
	// Constant 0.1% daily return annualizes to 25.2%.
	daily := make([]float64, 504)
	for i := range daily {
		daily[i] = 0.001
	}
	assert.InDelta(t, 0.252, AnnualizedReturn(daily), 1e-9)
}

func TestAnnualizedVolatility_FlatSeries(t *testing.T) {
	daily := []float64{0.001, 0.001, 0.001, 0.001}
	assert.InDelta(t, 0.0, AnnualizedVolatility(daily), 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	// Peaks at 1.2, troughs at 0.9: drawdown = 0.9/1.2 - 1 = -0.25.
	cum := []float64{1.0, 1.2, 0.9, 1.1}
	assert.InDelta(t, -0.25, MaxDrawdown(cum), 1e-9)
}

func TestMaxDrawdown_MonotonicSeries(t *testing.T) {
	cum := []float64{1.0, 1.1, 1.2, 1.3}
	assert.Equal(t, 0.0, MaxDrawdown(cum))
}

func TestCAGR(t *testing.T) {
	// Doubling over exactly one trading year is a 100% CAGR.
	cum := make([]float64, 252)
	for i := range cum {
		cum[i] = 1.0
	}
	cum[251] = 2.0
	assert.InDelta(t, 1.0, CAGR(cum), 1e-9)
}

func TestCAGR_NonPositiveFinal(t *testing.T) {
	assert.Equal(t, -1.0, CAGR([]float64{1.0, 0.0}))
}

func TestStdDev_SingleValue(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{0.5}))
	assert.False(t, math.IsNaN(StdDev(nil)))
}
