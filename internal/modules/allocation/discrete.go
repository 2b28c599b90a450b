// Package allocation converts continuous target weights into whole-unit
// purchase counts under a cash budget.
package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/domain"
)

// Result maps tickers to whole-unit purchase counts plus the cash that could
// not be deployed. Invariant: sum(units x price) + leftover <= budget.
type Result struct {
	Units    map[string]int `json:"units"`
	Leftover float64        `json:"leftover"`
}

// Allocator performs greedy discrete allocation.
type Allocator struct {
	log zerolog.Logger
}

// NewAllocator creates an allocator.
func NewAllocator(log zerolog.Logger) *Allocator {
	return &Allocator{log: log.With().Str("component", "allocator").Logger()}
}

// Allocate buys floor(weight x budget / price) units of each asset, then
// greedily tops up: while any asset is still affordable, the one with the
// largest dollar shortfall against its target receives one more unit. The
// greedy loop only terminates when the leftover cannot buy the cheapest
// asset, which bounds leftover below the cheapest unit price.
func (a *Allocator) Allocate(weights domain.WeightVector, prices map[string]float64, budget float64) (*Result, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("empty weight vector")
	}
	if budget <= 0 {
		return nil, fmt.Errorf("budget must be positive, got %f", budget)
	}

	tickers := weights.Tickers()
	cheapest := math.Inf(1)
	for _, t := range tickers {
		price, ok := prices[t]
		if !ok {
			return nil, fmt.Errorf("missing price for ticker %s", t)
		}
		if price <= 0 {
			return nil, fmt.Errorf("non-positive price %f for ticker %s", price, t)
		}
		if price < cheapest {
			cheapest = price
		}
	}
	if cheapest > budget {
		return nil, &domain.BudgetError{Budget: budget, CheapestPrice: cheapest}
	}

	units := make(map[string]int, len(tickers))
	spent := 0.0
	for _, t := range tickers {
		target := weights[t] * budget
		n := int(math.Floor(target / prices[t]))
		units[t] = n
		spent += float64(n) * prices[t]
	}

	// Top-up pass: largest shortfall first, ties by ticker for determinism.
	for {
		leftover := budget - spent

		best := ""
		bestShortfall := math.Inf(-1)
		for _, t := range tickers {
			if prices[t] > leftover {
				continue
			}
			shortfall := weights[t]*budget - float64(units[t])*prices[t]
			if shortfall > bestShortfall {
				best = t
				bestShortfall = shortfall
			}
		}
		if best == "" {
			break
		}

		units[best]++
		spent += prices[best]
	}

	// Drop zero-unit entries from the reported allocation.
	for t, n := range units {
		if n == 0 {
			delete(units, t)
		}
	}

	result := &Result{Units: units, Leftover: budget - spent}

	a.log.Info().Int("assets", len(units)).Float64("budget", budget).
		Float64("leftover", result.Leftover).Msg("Discrete allocation complete")

	return result, nil
}

// Tickers returns the allocated tickers in lexical order.
func (r *Result) Tickers() []string {
	tickers := make([]string, 0, len(r.Units))
	for t := range r.Units {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
