// Package domain provides core domain models and error kinds shared by the
// pipeline modules.
package domain

import "fmt"

// DataGapError reports an asset whose price history is too short for a
// required lookback window. The asset is excluded from selection and the run
// continues.
type DataGapError struct {
	Ticker string
	Window int
	Have   int
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("insufficient history for %s: need %d observations, have %d", e.Ticker, e.Window+1, e.Have)
}

// OptimizationError reports a solver failure (singular covariance,
// non-convergence). It aborts the run; callers may widen the asset set or
// increase shrinkage and retry.
type OptimizationError struct {
	Reason string
	Err    error
}

func (e *OptimizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("optimization failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("optimization failed: %s", e.Reason)
}

func (e *OptimizationError) Unwrap() error { return e.Err }

// BudgetError reports that the cash budget cannot buy a single unit of any
// selected asset.
type BudgetError struct {
	Budget        float64
	CheapestPrice float64
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("budget %.2f cannot afford any selected asset (cheapest unit costs %.2f)", e.Budget, e.CheapestPrice)
}
