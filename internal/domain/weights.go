package domain

import (
	"math"
	"sort"
)

// WeightTolerance is the accepted deviation of a weight vector's sum from 1.
const WeightTolerance = 1e-6

// WeightVector maps tickers to portfolio fractions in [0, 1]. A valid vector
// sums to 1 within WeightTolerance.
type WeightVector map[string]float64

// Sum returns the total of all weights.
func (w WeightVector) Sum() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// Valid reports whether all weights are non-negative and the vector sums to 1
// within tolerance.
func (w WeightVector) Valid() bool {
	for _, v := range w {
		if v < 0 {
			return false
		}
	}
	return math.Abs(w.Sum()-1.0) <= WeightTolerance
}

// Tickers returns the vector's tickers in lexical order.
func (w WeightVector) Tickers() []string {
	tickers := make([]string, 0, len(w))
	for t := range w {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
