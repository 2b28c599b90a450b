// Package momentum ranks assets by trailing-return momentum.
package momentum

import (
	"sort"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/modules/marketdata"
)

// Composite score blend: medium-term gets 40%, long-term 60%.
const (
	ShortWindowWeight = 0.4
	LongWindowWeight  = 0.6

	// DefaultShortWindow is roughly six months of trading days.
	DefaultShortWindow = 126
	// DefaultLongWindow is roughly twelve months of trading days.
	DefaultLongWindow = 252
)

// Record holds one asset's trailing returns and composite momentum score.
type Record struct {
	Ticker    string  `json:"ticker"`
	Return6M  float64 `json:"return_6m"`
	Return12M float64 `json:"return_12m"`
	Composite float64 `json:"composite"`
}

// Scorer computes momentum records from an aligned price matrix.
type Scorer struct {
	shortWindow int
	longWindow  int
	log         zerolog.Logger
}

// NewScorer creates a scorer with the given lookback windows in trading days.
// Non-positive windows fall back to the defaults.
func NewScorer(shortWindow, longWindow int, log zerolog.Logger) *Scorer {
	if shortWindow <= 0 {
		shortWindow = DefaultShortWindow
	}
	if longWindow <= 0 {
		longWindow = DefaultLongWindow
	}
	return &Scorer{
		shortWindow: shortWindow,
		longWindow:  longWindow,
		log:         log.With().Str("component", "momentum").Logger(),
	}
}

// Score computes a momentum record per ticker. Assets whose history is
// shorter than the longest window are excluded rather than zero-defaulted,
// so incomplete histories never bias the ranking. Excluded assets are
// reported as DataGapErrors and the run continues.
func (s *Scorer) Score(m *marketdata.PriceMatrix) ([]Record, []*domain.DataGapError) {
	var records []Record
	var excluded []*domain.DataGapError

	for _, ticker := range m.Tickers() {
		prices, err := m.Prices(ticker)
		if err != nil {
			// Tickers() and Prices() share the matrix keys; unreachable.
			continue
		}

		if len(prices) <= s.longWindow {
			gap := &domain.DataGapError{Ticker: ticker, Window: s.longWindow, Have: len(prices)}
			excluded = append(excluded, gap)
			s.log.Warn().Str("ticker", ticker).Int("observations", len(prices)).
				Int("required", s.longWindow+1).Msg("Excluding asset with short history")
			continue
		}

		shortRoc := talib.Rocp(prices, s.shortWindow)
		longRoc := talib.Rocp(prices, s.longWindow)
		last := len(prices) - 1

		rec := Record{
			Ticker:    ticker,
			Return6M:  shortRoc[last],
			Return12M: longRoc[last],
		}
		rec.Composite = ShortWindowWeight*rec.Return6M + LongWindowWeight*rec.Return12M
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Ticker < records[j].Ticker })

	s.log.Info().Int("scored", len(records)).Int("excluded", len(excluded)).
		Int("short_window", s.shortWindow).Int("long_window", s.longWindow).
		Msg("Computed momentum scores")

	return records, excluded
}
