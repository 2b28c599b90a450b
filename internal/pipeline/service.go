// Package pipeline orchestrates the momentum portfolio run: price retrieval,
// momentum scoring, selection, optimization, backtest, reporting and
// discrete allocation. Each run owns its inputs and outputs; nothing is
// shared mutably across runs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/modules/allocation"
	"github.com/aristath/quantfolio/internal/modules/backtest"
	"github.com/aristath/quantfolio/internal/modules/marketdata"
	"github.com/aristath/quantfolio/internal/modules/momentum"
	"github.com/aristath/quantfolio/internal/modules/optimization"
	"github.com/aristath/quantfolio/internal/modules/report"
	"github.com/aristath/quantfolio/internal/utils"
)

// Config holds all parameters of a single pipeline run.
type Config struct {
	Tickers           []string
	Benchmark         string
	RiskFreeRate      float64
	ShortWindow       int
	LongWindow        int
	SelectionFraction float64
	Rebalance         backtest.Frequency
	Budget            float64
	Start             time.Time
	End               time.Time
}

// RunResult is the immutable output of one pipeline run.
type RunResult struct {
	ID             string              `json:"id"`
	GeneratedAt    time.Time           `json:"generated_at"`
	Momentum       []momentum.Record   `json:"momentum"`
	Excluded       []string            `json:"excluded,omitempty"`
	Selected       []string            `json:"selected"`
	Weights        domain.WeightVector `json:"weights"`
	Backtest       *backtest.Result    `json:"backtest"`
	Report         report.Report       `json:"report"`
	Outperformance float64             `json:"outperformance"`
	Allocation     *allocation.Result  `json:"allocation"`
}

// Service runs the pipeline stages in order. The provider and solver are
// injected so callers can swap retrieval backends and optimizers.
type Service struct {
	provider marketdata.PriceProvider
	solver   optimization.Solver
	log      zerolog.Logger
}

// NewService creates a pipeline service.
func NewService(provider marketdata.PriceProvider, solver optimization.Solver, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		solver:   solver,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes the full pipeline. Retrieval failure, optimization failure
// and budget failure abort the run; short-history assets are excluded with
// the selection recomputed over the remaining scored universe.
func (s *Service) Run(ctx context.Context, cfg Config) (*RunResult, error) {
	if len(cfg.Tickers) == 0 {
		return nil, fmt.Errorf("no tickers configured")
	}
	if cfg.Benchmark == "" {
		return nil, fmt.Errorf("no benchmark configured")
	}

	fetch := make([]string, 0, len(cfg.Tickers)+1)
	seen := make(map[string]bool, len(cfg.Tickers)+1)
	for _, t := range append(append([]string(nil), cfg.Tickers...), cfg.Benchmark) {
		if !seen[t] {
			seen[t] = true
			fetch = append(fetch, t)
		}
	}

	s.log.Info().Int("tickers", len(fetch)).Str("benchmark", cfg.Benchmark).
		Time("start", cfg.Start).Time("end", cfg.End).Msg("Starting pipeline run")

	timer := utils.NewTimer("pipeline_run", s.log)
	defer timer.Stop()

	series, err := s.provider.FetchDaily(ctx, fetch, cfg.Start, cfg.End)
	if err != nil {
		return nil, fmt.Errorf("price retrieval failed: %w", err)
	}

	// An empty series (delisted or unknown symbol) would empty the shared
	// date index for everyone else, so drop it before alignment.
	var excluded []string
	nonEmpty := series[:0]
	for _, s2 := range series {
		if len(s2.Bars) == 0 {
			if s2.Ticker == cfg.Benchmark {
				return nil, fmt.Errorf("no price history for benchmark %s", cfg.Benchmark)
			}
			excluded = append(excluded, s2.Ticker)
			continue
		}
		nonEmpty = append(nonEmpty, s2)
	}
	if len(excluded) > 0 {
		s.log.Warn().Strs("tickers", excluded).Msg("Excluding tickers with no price history")
	}

	matrix, err := marketdata.Align(nonEmpty)
	if err != nil {
		return nil, fmt.Errorf("price alignment failed: %w", err)
	}

	scorer := momentum.NewScorer(cfg.ShortWindow, cfg.LongWindow, s.log)
	records, gaps := scorer.Score(matrix)

	// Selection ranks only the configured universe; the benchmark is not a
	// candidate unless explicitly listed as one.
	universe := make(map[string]bool, len(cfg.Tickers))
	for _, t := range cfg.Tickers {
		universe[t] = true
	}
	var candidates []momentum.Record
	for _, r := range records {
		if universe[r.Ticker] {
			candidates = append(candidates, r)
		}
	}

	for _, gap := range gaps {
		excluded = append(excluded, gap.Ticker)
	}

	selected, err := momentum.SelectTop(candidates, cfg.SelectionFraction)
	if err != nil {
		return nil, fmt.Errorf("asset selection failed: %w", err)
	}

	optimizer := optimization.NewOptimizer(s.solver, cfg.RiskFreeRate, s.log)
	weights, err := optimizer.Optimize(matrix, selected, cfg.Benchmark)
	if err != nil {
		return nil, err
	}

	simulator := backtest.NewSimulator(s.log)
	btResult, err := simulator.Run(matrix, weights, backtest.Config{
		Benchmark: cfg.Benchmark,
		Rebalance: cfg.Rebalance,
	})
	if err != nil {
		return nil, fmt.Errorf("backtest failed: %w", err)
	}

	rep, err := report.FromBacktest(btResult)
	if err != nil {
		return nil, fmt.Errorf("report failed: %w", err)
	}

	allocator := allocation.NewAllocator(s.log)
	alloc, err := allocator.Allocate(weights, latestFor(matrix, weights), cfg.Budget)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		ID:             uuid.New().String(),
		GeneratedAt:    time.Now().UTC(),
		Momentum:       candidates,
		Excluded:       excluded,
		Selected:       selected,
		Weights:        weights,
		Backtest:       btResult,
		Report:         rep,
		Outperformance: report.Outperformance(btResult),
		Allocation:     alloc,
	}

	s.log.Info().Str("run_id", result.ID).Int("selected", len(selected)).
		Float64("outperformance", result.Outperformance).Msg("Pipeline run complete")

	return result, nil
}

// latestFor extracts the latest price of every weighted asset.
func latestFor(m *marketdata.PriceMatrix, weights domain.WeightVector) map[string]float64 {
	latest := m.LatestPrices()
	prices := make(map[string]float64, len(weights))
	for t := range weights {
		if p, ok := latest[t]; ok {
			prices[t] = p
		}
	}
	return prices
}
