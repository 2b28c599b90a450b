package momentum

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/modules/marketdata"
)

// syntheticSeries builds n bars of a linear price ramp.
func syntheticSeries(ticker string, n int, start, step float64) marketdata.Series {
	bars := make([]marketdata.Bar, n)
	price := start
	for i := range bars {
		bars[i] = marketdata.Bar{Date: dateFor(i), AdjClose: price}
		price += step
	}
	return marketdata.Series{Ticker: ticker, Bars: bars}
}

func dateFor(i int) string {
	return time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02")
}

func TestScorer_CompositeBlend(t *testing.T) {
	// 11 observations with windows of 5 and 10: trailing returns are exact.
	prices := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110}
	bars := make([]marketdata.Bar, len(prices))
	for i, p := range prices {
		bars[i] = marketdata.Bar{Date: dateFor(i), AdjClose: p}
	}
	m, err := marketdata.Align([]marketdata.Series{{Ticker: "SPY", Bars: bars}})
	require.NoError(t, err)

	scorer := NewScorer(5, 10, zerolog.Nop())
	records, excluded := scorer.Score(m)

	require.Len(t, records, 1)
	assert.Empty(t, excluded)

	rec := records[0]
	assert.Equal(t, "SPY", rec.Ticker)
	assert.InDelta(t, (110.0-105.0)/105.0, rec.Return6M, 1e-9)
	assert.InDelta(t, 0.10, rec.Return12M, 1e-9)
	assert.InDelta(t, 0.4*rec.Return6M+0.6*rec.Return12M, rec.Composite, 1e-12)
}

func TestScorer_ExcludesShortHistory(t *testing.T) {
	m, err := marketdata.Align([]marketdata.Series{
		syntheticSeries("FULL", 300, 100, 0.1),
		syntheticSeries("SHRT", 300, 50, 0.1),
	})
	require.NoError(t, err)

	// Long window of 260 exceeds nothing here; use a trimmed matrix per ticker
	// instead: score a matrix where history is shorter than the long window.
	short, err := marketdata.Align([]marketdata.Series{syntheticSeries("SHRT", 100, 50, 0.1)})
	require.NoError(t, err)

	scorer := NewScorer(126, 252, zerolog.Nop())
	records, excluded := scorer.Score(short)
	assert.Empty(t, records)
	require.Len(t, excluded, 1)
	assert.Equal(t, "SHRT", excluded[0].Ticker)
	assert.Equal(t, 100, excluded[0].Have)

	// The full-length matrix scores both without exclusions.
	records, excluded = scorer.Score(m)
	assert.Len(t, records, 2)
	assert.Empty(t, excluded)
}

func TestScorer_DeterministicOrdering(t *testing.T) {
	m, err := marketdata.Align([]marketdata.Series{
		syntheticSeries("ZZZ", 300, 100, 0.2),
		syntheticSeries("AAA", 300, 100, 0.1),
	})
	require.NoError(t, err)

	scorer := NewScorer(126, 252, zerolog.Nop())
	records, _ := scorer.Score(m)
	require.Len(t, records, 2)
	assert.Equal(t, "AAA", records[0].Ticker)
	assert.Equal(t, "ZZZ", records[1].Ticker)
}
