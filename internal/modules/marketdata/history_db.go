package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/utils"
)

// HistoryDB caches daily price history in SQLite so repeated runs do not
// re-fetch unchanged history from the retrieval collaborator.
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryDB creates a new history database accessor.
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("component", "history_db").Logger(),
	}
}

// InitSchema creates the daily_prices table if it does not exist.
func (h *HistoryDB) InitSchema() error {
	_, err := h.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_prices (
			ticker    TEXT NOT NULL,
			date      TEXT NOT NULL,
			adj_close REAL NOT NULL,
			PRIMARY KEY (ticker, date)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_prices table: %w", err)
	}
	return nil
}

// GetDailyPrices fetches cached daily prices for a ticker within [start, end],
// ordered by date ascending. Dates are YYYY-MM-DD strings.
func (h *HistoryDB) GetDailyPrices(ticker, start, end string) ([]Bar, error) {
	rows, err := h.db.Query(`
		SELECT date, adj_close
		FROM daily_prices
		WHERE ticker = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var bars []Bar
	for rows.Next() {
		var b Bar
		if err := rows.Scan(&b.Date, &b.AdjClose); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return bars, nil
}

// SaveDailyPrices upserts a ticker's daily prices.
func (h *HistoryDB) SaveDailyPrices(ticker string, bars []Bar) error {
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (ticker, date, adj_close)
		VALUES (?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET adj_close = excluded.adj_close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(ticker, b.Date, b.AdjClose); err != nil {
			return fmt.Errorf("failed to insert price for %s on %s: %w", ticker, b.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit daily prices: %w", err)
	}

	h.log.Debug().Str("ticker", ticker).Int("bars", len(bars)).Msg("Saved daily prices")
	return nil
}

// LatestDate returns the most recent cached date for a ticker, or "" when the
// ticker has no cached history.
func (h *HistoryDB) LatestDate(ticker string) (string, error) {
	var date sql.NullString
	err := h.db.QueryRow(`SELECT MAX(date) FROM daily_prices WHERE ticker = ?`, ticker).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query latest date: %w", err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

// EarliestDate returns the oldest cached date for a ticker, or "" when the
// ticker has no cached history.
func (h *HistoryDB) EarliestDate(ticker string) (string, error) {
	var date sql.NullString
	err := h.db.QueryRow(`SELECT MIN(date) FROM daily_prices WHERE ticker = ?`, ticker).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query earliest date: %w", err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

// CachedProvider wraps a PriceProvider with the SQLite history cache. Cached
// history is served when it covers the requested range at both ends;
// otherwise the wrapped provider is called once and its result stored.
// Provider failures propagate unchanged - the cache never masks a retrieval
// failure with stale partial data.
type CachedProvider struct {
	provider PriceProvider
	history  *HistoryDB
	// staleAfter bounds how close to the requested end the cache must reach
	// to count as covering the range (weekends, holidays).
	staleAfter time.Duration
	log        zerolog.Logger
}

// NewCachedProvider creates a caching wrapper around a provider.
func NewCachedProvider(provider PriceProvider, history *HistoryDB, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		provider:   provider,
		history:    history,
		staleAfter: 4 * 24 * time.Hour,
		log:        log.With().Str("component", "cached_provider").Logger(),
	}
}

// FetchDaily implements PriceProvider.
func (c *CachedProvider) FetchDaily(ctx context.Context, tickers []string, start, end time.Time) ([]Series, error) {
	defer utils.OperationTimer("fetch_daily_prices", c.log)()

	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")

	var missing []string
	cached := make(map[string][]Bar, len(tickers))
	for _, t := range tickers {
		latest, err := c.history.LatestDate(t)
		if err != nil {
			return nil, err
		}
		earliest, err := c.history.EarliestDate(t)
		if err != nil {
			return nil, err
		}
		if latest == "" || c.stale(latest, end) || c.uncovered(earliest, start) {
			missing = append(missing, t)
			continue
		}
		bars, err := c.history.GetDailyPrices(t, startStr, endStr)
		if err != nil {
			return nil, err
		}
		if len(bars) == 0 {
			missing = append(missing, t)
			continue
		}
		cached[t] = bars
	}

	if len(missing) > 0 {
		c.log.Info().Int("cached", len(cached)).Int("fetching", len(missing)).Msg("Refreshing price history")
		fetched, err := c.provider.FetchDaily(ctx, missing, start, end)
		if err != nil {
			return nil, err
		}
		for _, s := range fetched {
			if err := c.history.SaveDailyPrices(s.Ticker, s.Bars); err != nil {
				c.log.Warn().Err(err).Str("ticker", s.Ticker).Msg("Failed to cache fetched prices")
			}
			cached[s.Ticker] = s.Bars
		}
	}

	series := make([]Series, 0, len(tickers))
	for _, t := range tickers {
		bars, ok := cached[t]
		if !ok {
			return nil, fmt.Errorf("no price history for ticker %s", t)
		}
		series = append(series, Series{Ticker: t, Bars: bars})
	}
	return series, nil
}

func (c *CachedProvider) stale(latestDate string, end time.Time) bool {
	latest, err := time.Parse("2006-01-02", latestDate)
	if err != nil {
		return true
	}
	return end.Sub(latest) > c.staleAfter
}

// uncovered reports whether the cached back-history starts too late for the
// requested start. Without this check a cache seeded by a shorter-range run
// would silently truncate the lookback basis of later, longer-range runs.
func (c *CachedProvider) uncovered(earliestDate string, start time.Time) bool {
	earliest, err := time.Parse("2006-01-02", earliestDate)
	if err != nil {
		return true
	}
	return earliest.Sub(start) > c.staleAfter
}
