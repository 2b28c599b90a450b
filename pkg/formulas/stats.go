// Package formulas provides reusable financial statistics helpers.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingPeriodsPerYear is the number of trading days in a calendar year.
const TradingPeriodsPerYear = 252.0

// Mean calculates the arithmetic mean of a slice of float64 values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// CalculateReturns converts prices to simple percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// AnnualizedReturn calculates annualized return from daily returns.
// Formula: mean(daily return) x 252.
func AnnualizedReturn(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return Mean(dailyReturns) * TradingPeriodsPerYear
}

// AnnualizedVolatility calculates annualized volatility from daily returns.
// Formula: stdev(daily return) x sqrt(252).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingPeriodsPerYear)
}

// MaxDrawdown calculates the maximum peak-to-trough decline of a cumulative
// growth series. The result is non-positive: 0 for a series that never falls
// below its running peak, -0.25 for a 25% drawdown.
func MaxDrawdown(cumulative []float64) float64 {
	if len(cumulative) == 0 {
		return 0
	}

	peak := cumulative[0]
	maxDD := 0.0
	for _, v := range cumulative {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := v/peak - 1
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// CAGR calculates the compound annual growth rate implied by a cumulative
// growth-of-$1 series spanning len(cumulative) trading periods.
// Formula: final^(252/N) - 1.
func CAGR(cumulative []float64) float64 {
	n := len(cumulative)
	if n == 0 {
		return 0
	}
	final := cumulative[n-1]
	if final <= 0 {
		return -1
	}
	return math.Pow(final, TradingPeriodsPerYear/float64(n)) - 1
}

// Covariance calculates the sample covariance between two equal-length series.
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Variance calculates the sample variance of a series.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}
