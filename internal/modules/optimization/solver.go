// Package optimization estimates expected returns and risk for a selected
// asset subset and solves for maximum-Sharpe portfolio weights.
package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Constraints are the box bounds applied to every weight. The sum-to-1
// constraint is always enforced.
type Constraints struct {
	MinWeight float64
	MaxWeight float64
}

// LongOnly is the default constraint set: no shorting, no leverage.
var LongOnly = Constraints{MinWeight: 0.0, MaxWeight: 1.0}

// Solver produces a weight vector maximizing the portfolio objective for the
// given annualized expected returns and covariance. Implementations must
// return weights aligned with the input ordering. Any convex solver
// producing the max-Sharpe weights under the constraints is interchangeable.
type Solver interface {
	Solve(mu []float64, sigma *mat.SymDense, cons Constraints) ([]float64, error)
}

// MaxSharpeSolver maximizes (mu'w - rf) / sqrt(w'Σw) via a penalty-method
// formulation on gonum/optimize: the sum-to-1 constraint becomes a quadratic
// penalty and box bounds are enforced by projection. BFGS runs first with a
// Nelder-Mead fallback.
type MaxSharpeSolver struct {
	RiskFreeRate float64
}

// NewMaxSharpeSolver creates a solver with the given annual risk-free rate.
func NewMaxSharpeSolver(riskFreeRate float64) *MaxSharpeSolver {
	return &MaxSharpeSolver{RiskFreeRate: riskFreeRate}
}

const penaltyWeight = 1000.0

// Solve implements Solver.
func (s *MaxSharpeSolver) Solve(mu []float64, sigma *mat.SymDense, cons Constraints) ([]float64, error) {
	n := len(mu)
	if n == 0 {
		return nil, fmt.Errorf("no assets to optimize")
	}
	if r, _ := sigma.Dims(); r != n {
		return nil, fmt.Errorf("covariance size %d does not match %d expected returns", r, n)
	}

	rf := s.RiskFreeRate

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToBounds(x, cons)

			var excess, variance float64
			for i := 0; i < n; i++ {
				excess += mu[i] * xProj[i]
				for j := 0; j < n; j++ {
					variance += xProj[i] * xProj[j] * sigma.At(i, j)
				}
			}
			excess -= rf
			stdDev := math.Sqrt(math.Max(variance, 1e-10))

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}

			obj := -excess / stdDev
			obj += penaltyWeight * (sum - 1.0) * (sum - 1.0)
			return obj
		},
		Grad: func(grad, x []float64) {
			xProj := projectToBounds(x, cons)

			var excess, variance float64
			for i := 0; i < n; i++ {
				excess += mu[i] * xProj[i]
				for j := 0; j < n; j++ {
					variance += xProj[i] * xProj[j] * sigma.At(i, j)
				}
			}
			excess -= rf
			stdDev := math.Sqrt(math.Max(variance, 1e-10))

			for i := 0; i < n; i++ {
				var dVariance float64
				for j := 0; j < n; j++ {
					dVariance += 2 * sigma.At(i, j) * xProj[j]
				}
				grad[i] = -mu[i]/stdDev + excess*dVariance/(2*stdDev*stdDev*stdDev)
			}

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}
			for i := 0; i < n; i++ {
				grad[i] += 2 * penaltyWeight * (sum - 1.0)
			}
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !converged(result.Status) {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("solver failed: %w", err)
		}
		if !converged(result.Status) {
			return nil, fmt.Errorf("solver did not converge: status=%v", result.Status)
		}
	}

	// Project the final point to bounds and normalize to the simplex.
	weights := projectToBounds(result.X, cons)
	sum := 0.0
	for i := range weights {
		weights[i] = math.Max(0.0, weights[i])
		sum += weights[i]
	}
	if sum <= 0 {
		return nil, fmt.Errorf("solver produced a degenerate all-zero weight vector")
	}
	for i := range weights {
		weights[i] /= sum
	}

	return weights, nil
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	}
	return false
}

func projectToBounds(x []float64, cons Constraints) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(cons.MinWeight, math.Min(cons.MaxWeight, x[i]))
	}
	return proj
}
