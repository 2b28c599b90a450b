package optimization

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/modules/marketdata"
	"github.com/aristath/quantfolio/pkg/formulas"
)

// ReportPrecision is the number of decimals weights are rounded to before
// reporting. Assets whose weight rounds to zero are dropped and the rest
// renormalized to sum to 1.
const ReportPrecision = 4

// Optimizer runs the mean-variance stage: CAPM expected returns, Ledoit-Wolf
// shrunk covariance, max-Sharpe solve, weight cleaning. Solver failures and
// singular covariances surface as domain.OptimizationError.
type Optimizer struct {
	solver       Solver
	riskFreeRate float64
	log          zerolog.Logger
}

// NewOptimizer creates an optimizer around a solver.
func NewOptimizer(solver Solver, riskFreeRate float64, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		solver:       solver,
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("component", "optimizer").Logger(),
	}
}

// Optimize computes max-Sharpe weights for the selected tickers using the
// benchmark column of the matrix as the CAPM market proxy.
func (o *Optimizer) Optimize(m *marketdata.PriceMatrix, selected []string, benchmark string) (domain.WeightVector, error) {
	if len(selected) < 2 {
		return nil, fmt.Errorf("need at least 2 selected assets, got %d", len(selected))
	}
	if !m.Has(benchmark) {
		return nil, fmt.Errorf("market proxy %s missing from price matrix", benchmark)
	}

	marketReturns, err := m.Returns(benchmark)
	if err != nil {
		return nil, err
	}

	assetReturns := make(map[string][]float64, len(selected))
	for _, t := range selected {
		ret, err := m.Returns(t)
		if err != nil {
			return nil, err
		}
		assetReturns[t] = ret
	}

	mu, err := CAPMExpectedReturns(assetReturns, selected, marketReturns, o.riskFreeRate)
	if err != nil {
		return nil, fmt.Errorf("expected return estimation failed: %w", err)
	}

	sigma, err := ShrunkCovariance(assetReturns, selected, formulas.TradingPeriodsPerYear)
	if err != nil {
		return nil, &domain.OptimizationError{Reason: "covariance estimation failed", Err: err}
	}
	if !IsPositiveDefinite(sigma) {
		return nil, &domain.OptimizationError{Reason: "covariance matrix is singular or not positive definite"}
	}

	muVec := make([]float64, len(selected))
	for i, t := range selected {
		muVec[i] = mu[t]
	}

	raw, err := o.solver.Solve(muVec, sigma, LongOnly)
	if err != nil {
		return nil, &domain.OptimizationError{Reason: "solver failure", Err: err}
	}

	weights := cleanWeights(raw, selected)
	if len(weights) == 0 {
		return nil, &domain.OptimizationError{Reason: "all weights rounded to zero"}
	}

	o.log.Info().Int("assets", len(selected)).Int("nonzero", len(weights)).
		Msg("Optimized portfolio weights")

	return weights, nil
}

// cleanWeights rounds to ReportPrecision, drops zero entries and
// renormalizes so the reported vector still sums to 1.
func cleanWeights(raw []float64, tickers []string) domain.WeightVector {
	scale := math.Pow(10, ReportPrecision)

	weights := make(domain.WeightVector, len(tickers))
	sum := 0.0
	for i, t := range tickers {
		w := math.Round(raw[i]*scale) / scale
		if w > 0 {
			weights[t] = w
			sum += w
		}
	}
	if sum <= 0 {
		return nil
	}
	for t := range weights {
		weights[t] /= sum
	}
	return weights
}
