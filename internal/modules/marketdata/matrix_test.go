package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign_DropsDatesMissingAnyTicker(t *testing.T) {
	series := []Series{
		{Ticker: "SPY", Bars: []Bar{
			{Date: "2024-01-02", AdjClose: 100},
			{Date: "2024-01-03", AdjClose: 101},
			{Date: "2024-01-04", AdjClose: 102},
		}},
		{Ticker: "QQQ", Bars: []Bar{
			{Date: "2024-01-02", AdjClose: 200},
			{Date: "2024-01-04", AdjClose: 204},
		}},
	}

	m, err := Align(series)
	require.NoError(t, err)

	// 2024-01-03 is missing for QQQ and must be dropped for both.
	assert.Equal(t, []string{"2024-01-02", "2024-01-04"}, m.Dates())
	assert.Equal(t, []string{"QQQ", "SPY"}, m.Tickers())

	spy, err := m.Prices("SPY")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 102}, spy)
}

func TestAlign_NoSharedDates(t *testing.T) {
	series := []Series{
		{Ticker: "SPY", Bars: []Bar{{Date: "2024-01-02", AdjClose: 100}}},
		{Ticker: "QQQ", Bars: []Bar{{Date: "2024-01-03", AdjClose: 200}}},
	}

	_, err := Align(series)
	assert.Error(t, err)
}

func TestAlign_DuplicateTicker(t *testing.T) {
	series := []Series{
		{Ticker: "SPY", Bars: []Bar{{Date: "2024-01-02", AdjClose: 100}}},
		{Ticker: "SPY", Bars: []Bar{{Date: "2024-01-02", AdjClose: 101}}},
	}

	_, err := Align(series)
	assert.Error(t, err)
}

func TestPriceMatrix_Returns(t *testing.T) {
	m := mustMatrix(t, []Series{
		{Ticker: "SPY", Bars: []Bar{
			{Date: "2024-01-02", AdjClose: 100},
			{Date: "2024-01-03", AdjClose: 110},
			{Date: "2024-01-04", AdjClose: 99},
		}},
	})

	returns, err := m.Returns("SPY")
	require.NoError(t, err)
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)

	_, err = m.Returns("MISSING")
	assert.Error(t, err)
}

func TestPriceMatrix_LatestPrices(t *testing.T) {
	m := mustMatrix(t, []Series{
		{Ticker: "SPY", Bars: []Bar{
			{Date: "2024-01-02", AdjClose: 100},
			{Date: "2024-01-03", AdjClose: 105},
		}},
		{Ticker: "GLD", Bars: []Bar{
			{Date: "2024-01-02", AdjClose: 180},
			{Date: "2024-01-03", AdjClose: 181},
		}},
	})

	latest := m.LatestPrices()
	assert.Equal(t, 105.0, latest["SPY"])
	assert.Equal(t, 181.0, latest["GLD"])
}

func TestPriceMatrix_Subset(t *testing.T) {
	m := mustMatrix(t, []Series{
		{Ticker: "SPY", Bars: []Bar{{Date: "2024-01-02", AdjClose: 100}}},
		{Ticker: "QQQ", Bars: []Bar{{Date: "2024-01-02", AdjClose: 200}}},
		{Ticker: "GLD", Bars: []Bar{{Date: "2024-01-02", AdjClose: 180}}},
	})

	sub, err := m.Subset([]string{"SPY", "GLD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GLD", "SPY"}, sub.Tickers())
	assert.Equal(t, m.Dates(), sub.Dates())

	_, err = m.Subset([]string{"MISSING"})
	assert.Error(t, err)
}

func mustMatrix(t *testing.T, series []Series) *PriceMatrix {
	t.Helper()
	m, err := Align(series)
	require.NoError(t, err)
	return m
}
