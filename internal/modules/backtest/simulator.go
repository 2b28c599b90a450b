// Package backtest replays historical returns through target weights with
// periodic rebalancing.
package backtest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/modules/marketdata"
)

// Frequency controls how often effective weights reset to targets.
type Frequency string

const (
	FrequencyNone      Frequency = "none"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Config holds simulation parameters.
type Config struct {
	Benchmark string
	Rebalance Frequency
}

// Result is the growth-of-$1 series for strategy and benchmark over the
// shared date index. Both start at exactly 1.0 on the first date.
type Result struct {
	Dates     []string  `json:"dates"`
	Strategy  []float64 `json:"strategy"`
	Benchmark []float64 `json:"benchmark"`
}

// Final returns the last strategy and benchmark values.
func (r *Result) Final() (strategy, benchmark float64) {
	last := len(r.Dates) - 1
	return r.Strategy[last], r.Benchmark[last]
}

// Simulator replays daily returns through a weight vector.
type Simulator struct {
	log zerolog.Logger
}

// NewSimulator creates a simulator.
func NewSimulator(log zerolog.Logger) *Simulator {
	return &Simulator{log: log.With().Str("component", "backtest").Logger()}
}

// Run simulates the strategy over the matrix's full date range. Between
// rebalance dates weights drift with asset returns (buy and hold); on the
// first trading day of each new rebalance period the effective weights reset
// to targets before that day's return is applied, so the boundary day's
// return accrues exactly once, at target weights.
func (s *Simulator) Run(m *marketdata.PriceMatrix, weights domain.WeightVector, cfg Config) (*Result, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("empty weight vector")
	}
	if !weights.Valid() {
		return nil, fmt.Errorf("weight vector does not sum to 1: got %f", weights.Sum())
	}
	if !m.Has(cfg.Benchmark) {
		return nil, fmt.Errorf("benchmark %s missing from price matrix", cfg.Benchmark)
	}

	dates := m.Dates()
	if len(dates) < 2 {
		return nil, fmt.Errorf("need at least 2 dates to simulate, got %d", len(dates))
	}

	tickers := weights.Tickers()
	assetReturns := make(map[string][]float64, len(tickers))
	for _, t := range tickers {
		ret, err := m.Returns(t)
		if err != nil {
			return nil, err
		}
		assetReturns[t] = ret
	}
	benchReturns, err := m.Returns(cfg.Benchmark)
	if err != nil {
		return nil, err
	}

	target := make(map[string]float64, len(weights))
	for t, w := range weights {
		target[t] = w
	}

	effective := make(map[string]float64, len(target))
	for t, w := range target {
		effective[t] = w
	}

	strategy := make([]float64, len(dates))
	benchmark := make([]float64, len(dates))
	strategy[0] = 1.0
	benchmark[0] = 1.0

	rebalances := 0
	for i := 1; i < len(dates); i++ {
		if isRebalanceBoundary(dates[i-1], dates[i], cfg.Rebalance) {
			for t, w := range target {
				effective[t] = w
			}
			rebalances++
		}

		var dayReturn float64
		for _, t := range tickers {
			dayReturn += effective[t] * assetReturns[t][i-1]
		}

		strategy[i] = strategy[i-1] * (1 + dayReturn)
		benchmark[i] = benchmark[i-1] * (1 + benchReturns[i-1])

		// Drift: each holding compounds by its own return, renormalized by
		// the portfolio return so effective weights stay on the simplex.
		if growth := 1 + dayReturn; growth != 0 {
			for _, t := range tickers {
				effective[t] = effective[t] * (1 + assetReturns[t][i-1]) / growth
			}
		}
	}

	s.log.Info().Int("days", len(dates)).Int("rebalances", rebalances).
		Str("frequency", string(cfg.Rebalance)).Msg("Backtest complete")

	return &Result{Dates: dates, Strategy: strategy, Benchmark: benchmark}, nil
}

// isRebalanceBoundary reports whether curr is the first trading day of a new
// rebalance period relative to prev.
func isRebalanceBoundary(prev, curr string, freq Frequency) bool {
	if freq == FrequencyNone || freq == "" {
		return false
	}

	p, err := time.Parse("2006-01-02", prev)
	if err != nil {
		return false
	}
	c, err := time.Parse("2006-01-02", curr)
	if err != nil {
		return false
	}

	switch freq {
	case FrequencyMonthly:
		return p.Year() != c.Year() || p.Month() != c.Month()
	case FrequencyQuarterly:
		return p.Year() != c.Year() || quarterOf(p) != quarterOf(c)
	case FrequencyYearly:
		return p.Year() != c.Year()
	}
	return false
}

func quarterOf(t time.Time) int {
	return (int(t.Month()) - 1) / 3
}
