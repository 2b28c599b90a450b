package optimization

import (
	"fmt"

	"github.com/aristath/quantfolio/pkg/formulas"
)

// CAPMExpectedReturns estimates annualized expected returns per asset with
// the capital asset pricing model:
//
//	mu_i = rf + beta_i * (E[R_m] - rf), beta_i = cov(R_i, R_m) / var(R_m)
//
// marketReturns is the daily return series of the market proxy; a missing or
// flat proxy is a hard configuration error, never zero-defaulted.
func CAPMExpectedReturns(
	assetReturns map[string][]float64,
	tickers []string,
	marketReturns []float64,
	riskFreeRate float64,
) (map[string]float64, error) {
	if len(marketReturns) < 2 {
		return nil, fmt.Errorf("market proxy series has %d observations, need at least 2", len(marketReturns))
	}

	marketVar := formulas.Variance(marketReturns)
	if marketVar == 0 {
		return nil, fmt.Errorf("market proxy has zero variance, cannot estimate betas")
	}

	marketAnnual := formulas.AnnualizedReturn(marketReturns)

	mu := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		ret, ok := assetReturns[t]
		if !ok {
			return nil, fmt.Errorf("missing return series for ticker %s", t)
		}
		if len(ret) != len(marketReturns) {
			return nil, fmt.Errorf("return series for %s has %d observations, market has %d", t, len(ret), len(marketReturns))
		}

		beta := formulas.Covariance(ret, marketReturns) / marketVar
		mu[t] = riskFreeRate + beta*(marketAnnual-riskFreeRate)
	}
	return mu, nil
}
