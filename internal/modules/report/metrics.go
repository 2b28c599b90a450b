// Package report derives performance metrics from cumulative return series.
package report

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/aristath/quantfolio/internal/modules/backtest"
	"github.com/aristath/quantfolio/pkg/formulas"
)

// Series labels used throughout the report.
const (
	LabelStrategy  = "strategy"
	LabelBenchmark = "benchmark"
)

// Metrics holds the derived performance figures for one labeled series.
// SharpeRatio is NaN when volatility is zero; consumers should render it as
// undefined rather than a number.
type Metrics struct {
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	CAGR             float64 `json:"cagr"`
}

// MarshalJSON renders non-finite figures as null. encoding/json refuses NaN
// and Inf outright, which would otherwise break every payload embedding a
// zero-volatility report.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AnnualReturn     *float64 `json:"annual_return"`
		AnnualVolatility *float64 `json:"annual_volatility"`
		SharpeRatio      *float64 `json:"sharpe_ratio"`
		MaxDrawdown      *float64 `json:"max_drawdown"`
		CAGR             *float64 `json:"cagr"`
	}{
		AnnualReturn:     finite(m.AnnualReturn),
		AnnualVolatility: finite(m.AnnualVolatility),
		SharpeRatio:      finite(m.SharpeRatio),
		MaxDrawdown:      finite(m.MaxDrawdown),
		CAGR:             finite(m.CAGR),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Report maps series labels to their metrics.
type Report map[string]Metrics

// Compute derives metrics from a growth-of-$1 cumulative series.
func Compute(cumulative []float64) (Metrics, error) {
	if len(cumulative) < 2 {
		return Metrics{}, fmt.Errorf("need at least 2 observations, got %d", len(cumulative))
	}

	daily := formulas.CalculateReturns(cumulative)

	m := Metrics{
		AnnualReturn:     formulas.AnnualizedReturn(daily),
		AnnualVolatility: formulas.AnnualizedVolatility(daily),
		MaxDrawdown:      formulas.MaxDrawdown(cumulative),
		CAGR:             formulas.CAGR(cumulative),
	}

	if m.AnnualVolatility == 0 {
		m.SharpeRatio = math.NaN()
	} else {
		m.SharpeRatio = m.AnnualReturn / m.AnnualVolatility
	}

	return m, nil
}

// FromBacktest computes a full report for a backtest result.
func FromBacktest(res *backtest.Result) (Report, error) {
	strategy, err := Compute(res.Strategy)
	if err != nil {
		return nil, fmt.Errorf("strategy metrics: %w", err)
	}
	benchmark, err := Compute(res.Benchmark)
	if err != nil {
		return nil, fmt.Errorf("benchmark metrics: %w", err)
	}

	return Report{
		LabelStrategy:  strategy,
		LabelBenchmark: benchmark,
	}, nil
}

// Outperformance is the strategy's final value relative to the benchmark's:
// strategyFinal/benchmarkFinal - 1.
func Outperformance(res *backtest.Result) float64 {
	strategyFinal, benchmarkFinal := res.Final()
	if benchmarkFinal == 0 {
		return math.NaN()
	}
	return strategyFinal/benchmarkFinal - 1
}
