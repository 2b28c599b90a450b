package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SampleCovariance calculates the sample covariance matrix of the given
// return series. Element (i,j) is the covariance between tickers[i] and
// tickers[j]; all series must share one observation count.
func SampleCovariance(returns map[string][]float64, tickers []string) ([][]float64, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers provided")
	}

	length := -1
	for _, t := range tickers {
		ret, ok := returns[t]
		if !ok {
			return nil, fmt.Errorf("missing returns for ticker %s", t)
		}
		if length == -1 {
			length = len(ret)
		}
		if len(ret) != length {
			return nil, fmt.Errorf("inconsistent return lengths: expected %d, got %d for %s", length, len(ret), t)
		}
	}
	if length < 2 {
		return nil, fmt.Errorf("insufficient data: need at least 2 observations, got %d", length)
	}

	n := len(tickers)
	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := stat.Covariance(returns[tickers[i]], returns[tickers[j]], nil)
			cov[i][j] = c
			cov[j][i] = c
		}
	}
	return cov, nil
}

// LedoitWolfShrinkage shrinks a sample covariance matrix towards a constant
// correlation target. The shrinkage intensity is estimated from the spread
// between sample and target, capped at 0.5.
//
// Reference: Ledoit, O., & Wolf, M. (2004). "A well-conditioned estimator for
// large-dimensional covariance matrices"
func LedoitWolfShrinkage(sample [][]float64) ([][]float64, error) {
	n := len(sample)
	if n == 0 {
		return nil, fmt.Errorf("empty covariance matrix")
	}

	// Constant correlation target: average variance on the diagonal, average
	// off-diagonal covariance elsewhere.
	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += sample[i][i]
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += sample[i][j]
			}
		}
	}
	avgVar /= float64(n)
	if n > 1 {
		avgCov /= float64(n * (n - 1))
	}

	target := func(i, j int) float64 {
		if i == j {
			return avgVar
		}
		if avgVar > 0 {
			return avgCov
		}
		return 0
	}

	shrinkage := 0.2
	if n > 2 && avgVar > 0 {
		var sumSqDiff float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				diff := sample[i][j] - target(i, j)
				sumSqDiff += diff * diff
			}
		}
		meanSqDiff := sumSqDiff / float64(n*n)

		var sumSq, mean float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				v := sample[i][j]
				mean += v
				sumSq += v * v
			}
		}
		count := float64(n * n)
		mean /= count
		varSample := sumSq/count - mean*mean

		if varSample > 0 && meanSqDiff > 0 {
			shrinkage = math.Min(0.5, math.Max(0.0, varSample/(varSample+meanSqDiff)))
		}
	}

	shrunk := make([][]float64, n)
	for i := 0; i < n; i++ {
		shrunk[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			shrunk[i][j] = (1-shrinkage)*sample[i][j] + shrinkage*target(i, j)
		}
	}
	return shrunk, nil
}

// ShrunkCovariance builds the annualized Ledoit-Wolf shrunk covariance of
// daily returns as a symmetric gonum matrix.
func ShrunkCovariance(returns map[string][]float64, tickers []string, periodsPerYear float64) (*mat.SymDense, error) {
	sample, err := SampleCovariance(returns, tickers)
	if err != nil {
		return nil, err
	}

	shrunk, err := LedoitWolfShrinkage(sample)
	if err != nil {
		return nil, err
	}

	n := len(tickers)
	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sigma.SetSym(i, j, shrunk[i][j]*periodsPerYear)
		}
	}
	return sigma, nil
}

// IsPositiveDefinite reports whether the covariance matrix admits a Cholesky
// factorization. A singular or indefinite matrix cannot be optimized.
func IsPositiveDefinite(sigma *mat.SymDense) bool {
	var chol mat.Cholesky
	return chol.Factorize(sigma)
}
