// Package marketdata provides aligned price history for the pipeline.
package marketdata

import (
	"fmt"
	"sort"

	"github.com/aristath/quantfolio/pkg/formulas"
)

// Bar is a single daily observation of an asset's adjusted close price.
type Bar struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	AdjClose float64 `json:"adj_close"`
}

// Series is one asset's ordered daily price history.
type Series struct {
	Ticker string `json:"ticker"`
	Bars   []Bar  `json:"bars"`
}

// PriceMatrix holds per-asset adjusted close series aligned on a shared date
// index. Every ticker has a value for every date; dates missing any ticker
// are dropped during alignment. The matrix is immutable once built.
type PriceMatrix struct {
	dates   []string
	tickers []string
	prices  map[string][]float64
}

// Align builds a PriceMatrix from raw per-asset series. Only dates observed
// for every ticker survive; within each ticker, later duplicates of the same
// date win.
func Align(series []Series) (*PriceMatrix, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no series to align")
	}

	byTicker := make(map[string]map[string]float64, len(series))
	tickers := make([]string, 0, len(series))
	for _, s := range series {
		if s.Ticker == "" {
			return nil, fmt.Errorf("series with empty ticker")
		}
		if _, dup := byTicker[s.Ticker]; dup {
			return nil, fmt.Errorf("duplicate series for ticker %s", s.Ticker)
		}
		dated := make(map[string]float64, len(s.Bars))
		for _, b := range s.Bars {
			dated[b.Date] = b.AdjClose
		}
		byTicker[s.Ticker] = dated
		tickers = append(tickers, s.Ticker)
	}
	sort.Strings(tickers)

	// Intersect date sets: keep dates present for every ticker.
	var dates []string
	for date := range byTicker[tickers[0]] {
		shared := true
		for _, t := range tickers[1:] {
			if _, ok := byTicker[t][date]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, date)
		}
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no dates shared by all %d tickers", len(tickers))
	}
	sort.Strings(dates)

	prices := make(map[string][]float64, len(tickers))
	for _, t := range tickers {
		col := make([]float64, len(dates))
		for i, d := range dates {
			col[i] = byTicker[t][d]
		}
		prices[t] = col
	}

	return &PriceMatrix{dates: dates, tickers: tickers, prices: prices}, nil
}

// Dates returns the shared date index in ascending order.
func (m *PriceMatrix) Dates() []string {
	out := make([]string, len(m.dates))
	copy(out, m.dates)
	return out
}

// Tickers returns the matrix tickers in lexical order.
func (m *PriceMatrix) Tickers() []string {
	out := make([]string, len(m.tickers))
	copy(out, m.tickers)
	return out
}

// Len returns the number of dates in the shared index.
func (m *PriceMatrix) Len() int { return len(m.dates) }

// Has reports whether the matrix contains the given ticker.
func (m *PriceMatrix) Has(ticker string) bool {
	_, ok := m.prices[ticker]
	return ok
}

// Prices returns the aligned adjusted close column for a ticker.
func (m *PriceMatrix) Prices(ticker string) ([]float64, error) {
	col, ok := m.prices[ticker]
	if !ok {
		return nil, fmt.Errorf("ticker %s not in price matrix", ticker)
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out, nil
}

// Returns computes simple daily returns for a ticker. The result has one
// fewer element than the date index.
func (m *PriceMatrix) Returns(ticker string) ([]float64, error) {
	col, ok := m.prices[ticker]
	if !ok {
		return nil, fmt.Errorf("ticker %s not in price matrix", ticker)
	}
	return formulas.CalculateReturns(col), nil
}

// LatestPrices returns the most recent adjusted close per ticker.
func (m *PriceMatrix) LatestPrices() map[string]float64 {
	latest := make(map[string]float64, len(m.tickers))
	last := len(m.dates) - 1
	for _, t := range m.tickers {
		latest[t] = m.prices[t][last]
	}
	return latest
}

// Subset returns a new matrix restricted to the given tickers, sharing the
// same date index.
func (m *PriceMatrix) Subset(tickers []string) (*PriceMatrix, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("empty ticker subset")
	}

	sorted := make([]string, len(tickers))
	copy(sorted, tickers)
	sort.Strings(sorted)

	prices := make(map[string][]float64, len(sorted))
	for _, t := range sorted {
		col, ok := m.prices[t]
		if !ok {
			return nil, fmt.Errorf("ticker %s not in price matrix", t)
		}
		cp := make([]float64, len(col))
		copy(cp, col)
		prices[t] = cp
	}

	dates := make([]string, len(m.dates))
	copy(dates, m.dates)

	return &PriceMatrix{dates: dates, tickers: sorted, prices: prices}, nil
}
