package marketdata

import (
	"context"
	"time"
)

// PriceProvider retrieves daily adjusted close history for a set of tickers.
// Implementations may hit the network; a failure for any ticker fails the
// whole call. The pipeline never retries a provider - retrieval failure
// aborts the run.
type PriceProvider interface {
	FetchDaily(ctx context.Context, tickers []string, start, end time.Time) ([]Series, error)
}
