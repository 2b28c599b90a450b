// Package yahoo fetches daily adjusted close prices from the Yahoo Finance
// chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/modules/marketdata"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client is a Yahoo Finance API client implementing marketdata.PriceProvider.
type Client struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: defaultBaseURL,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse is the shape of the chart API payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// FetchDaily fetches daily bars for every ticker over [start, end]. A ticker
// that returns no rows yields an empty series rather than an error, so gaps
// surface downstream as short-history exclusions instead of aborting the
// whole batch.
func (c *Client) FetchDaily(ctx context.Context, tickers []string, start, end time.Time) ([]marketdata.Series, error) {
	series := make([]marketdata.Series, 0, len(tickers))
	for _, ticker := range tickers {
		bars, err := c.fetchTicker(ctx, ticker, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", ticker, err)
		}
		series = append(series, marketdata.Series{Ticker: ticker, Bars: bars})
	}
	return series, nil
}

func (c *Client) fetchTicker(ctx context.Context, ticker string, start, end time.Time) ([]marketdata.Bar, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", fmt.Sprintf("%d", start.Unix()))
	params.Add("period2", fmt.Sprintf("%d", end.Unix()))
	params.Add("events", "div,splits")

	reqURL := c.baseURL + "/" + url.PathEscape(ticker) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 {
		c.log.Warn().Str("ticker", ticker).Msg("No chart data returned")
		return nil, nil
	}

	chartData := result.Chart.Result[0]
	if len(chartData.Indicators.Quote) == 0 {
		c.log.Warn().Str("ticker", ticker).Msg("No quote data in response")
		return nil, nil
	}

	closes := chartData.Indicators.Quote[0].Close

	// Prefer adjusted closes; fall back to raw closes when absent.
	var adjCloses []float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjCloses = chartData.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]marketdata.Bar, 0, len(chartData.Timestamp))
	for i, ts := range chartData.Timestamp {
		if i >= len(closes) {
			break
		}
		price := closes[i]
		if i < len(adjCloses) && adjCloses[i] != 0 {
			price = adjCloses[i]
		}
		// Yahoo encodes missing rows as zeros
		if price == 0 {
			continue
		}
		bars = append(bars, marketdata.Bar{
			Date:     time.Unix(ts, 0).UTC().Format("2006-01-02"),
			AdjClose: price,
		})
	}

	c.log.Debug().
		Str("ticker", ticker).
		Int("count", len(bars)).
		Msg("Fetched daily prices")

	return bars, nil
}
