package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMaxSharpeSolver_TwoAssets(t *testing.T) {
	// Uncorrelated assets with equal risk: the higher-return asset dominates
	// but diversification keeps both in the portfolio. The closed-form
	// solution is w ~ inv(Sigma) * (mu - rf) = [2, 0.75], normalized.
	mu := []float64{0.10, 0.05}
	sigma := mat.NewSymDense(2, []float64{
		0.04, 0.0,
		0.0, 0.04,
	})

	solver := NewMaxSharpeSolver(0.02)
	weights, err := solver.Solve(mu, sigma, LongOnly)
	require.NoError(t, err)
	require.Len(t, weights, 2)

	sum := weights[0] + weights[1]
	assert.InDelta(t, 1.0, sum, 1e-6, "weights must sum to 1")
	for _, w := range weights {
		assert.GreaterOrEqual(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0)
	}
	assert.Greater(t, weights[0], weights[1], "higher expected return should get more weight")
	assert.InDelta(t, 2.0/2.75, weights[0], 0.05)
}

func TestMaxSharpeSolver_WeightsSumToOne(t *testing.T) {
	mu := []float64{0.08, 0.06, 0.12, 0.04}
	sigma := mat.NewSymDense(4, []float64{
		0.040, 0.006, 0.004, 0.002,
		0.006, 0.030, 0.005, 0.003,
		0.004, 0.005, 0.050, 0.001,
		0.002, 0.003, 0.001, 0.020,
	})

	solver := NewMaxSharpeSolver(0.0)
	weights, err := solver.Solve(mu, sigma, LongOnly)
	require.NoError(t, err)

	sum := 0.0
	for _, w := range weights {
		assert.GreaterOrEqual(t, w, 0.0, "no shorting")
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestMaxSharpeSolver_Deterministic(t *testing.T) {
	mu := []float64{0.09, 0.07, 0.11}
	sigma := mat.NewSymDense(3, []float64{
		0.04, 0.01, 0.005,
		0.01, 0.03, 0.008,
		0.005, 0.008, 0.025,
	})

	solver := NewMaxSharpeSolver(0.01)
	first, err := solver.Solve(mu, sigma, LongOnly)
	require.NoError(t, err)

	again, err := solver.Solve(mu, sigma, LongOnly)
	require.NoError(t, err)
	assert.Equal(t, first, again, "identical input must produce identical weights")
}

func TestMaxSharpeSolver_EmptyInput(t *testing.T) {
	solver := NewMaxSharpeSolver(0.0)
	_, err := solver.Solve(nil, mat.NewSymDense(1, []float64{0.1}), LongOnly)
	assert.Error(t, err)
}

func TestMaxSharpeSolver_DimensionMismatch(t *testing.T) {
	solver := NewMaxSharpeSolver(0.0)
	_, err := solver.Solve([]float64{0.1, 0.2}, mat.NewSymDense(3, nil), LongOnly)
	assert.Error(t, err)
}
