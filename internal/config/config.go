// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aristath/quantfolio/internal/modules/backtest"
	"github.com/aristath/quantfolio/internal/utils"
)

// Config holds application configuration.
type Config struct {
	DataDir      string // Base directory for the price database and snapshots (always absolute)
	Port         int
	LogLevel     string
	DevMode      bool
	RefreshCron  string // cron expression for the scheduled pipeline run
	Strategy     Strategy
	StrategyFile string // optional YAML file overriding strategy defaults
}

// Strategy holds the portfolio construction parameters.
type Strategy struct {
	Tickers           []string           `yaml:"tickers"`
	Benchmark         string             `yaml:"benchmark"`
	StartDate         string             `yaml:"start_date"`
	RiskFreeRate      float64            `yaml:"risk_free_rate"`
	ShortWindow       int                `yaml:"short_window"`
	LongWindow        int                `yaml:"long_window"`
	SelectionFraction float64            `yaml:"selection_fraction"`
	Rebalance         backtest.Frequency `yaml:"rebalance"`
	Budget            float64            `yaml:"budget"`
}

// DefaultStrategy is a broad multi-asset ETF universe benchmarked against SPY.
func DefaultStrategy() Strategy {
	return Strategy{
		Tickers: []string{
			"SPY", // S&P 500
			"QQQ", // Nasdaq 100
			"DIA", // Dow Jones
			"IWM", // Russell 2000
			"VGK", // Europe
			"EWJ", // Japan
			"EEM", // Emerging Markets
			"GLD", // Gold
			"TLT", // 20+ Year Treasuries
			"IEF", // 7-10 Year Treasuries
			"DBC", // Commodities
			"VNQ", // Real Estate
			"XLE", // Energy
			"XLF", // Financials
			"XLK", // Technology
			"XLV", // Healthcare
			"XLI", // Industrials
			"XLP", // Consumer Staples
			"XLY", // Consumer Discretionary
			"XLU", // Utilities
		},
		Benchmark:         "SPY",
		StartDate:         "2010-01-01",
		RiskFreeRate:      0.02,
		ShortWindow:       126,
		LongWindow:        252,
		SelectionFraction: 0.3,
		Rebalance:         backtest.FrequencyQuarterly,
		Budget:            100000,
	}
}

// Load reads configuration from environment variables, then layers the
// strategy YAML file (if configured) over the defaults.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("QUANTFOLIO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		Port:         getEnvAsInt("QUANTFOLIO_PORT", 8080),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		RefreshCron:  getEnv("QUANTFOLIO_REFRESH_CRON", "0 30 22 * * 1-5"), // weekdays after US close
		Strategy:     DefaultStrategy(),
		StrategyFile: getEnv("QUANTFOLIO_STRATEGY_FILE", ""),
	}

	if cfg.StrategyFile != "" {
		if err := cfg.loadStrategyFile(cfg.StrategyFile); err != nil {
			return nil, err
		}
	}

	// Explicit ticker list via env wins over both defaults and strategy file.
	if tickers := utils.ParseCSV(getEnv("QUANTFOLIO_TICKERS", "")); tickers != nil {
		cfg.Strategy.Tickers = tickers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// strategyFile mirrors Strategy with pointer fields so an explicit YAML zero
// (e.g. risk_free_rate: 0) is distinguishable from an absent key.
type strategyFile struct {
	Tickers           []string            `yaml:"tickers"`
	Benchmark         *string             `yaml:"benchmark"`
	StartDate         *string             `yaml:"start_date"`
	RiskFreeRate      *float64            `yaml:"risk_free_rate"`
	ShortWindow       *int                `yaml:"short_window"`
	LongWindow        *int                `yaml:"long_window"`
	SelectionFraction *float64            `yaml:"selection_fraction"`
	Rebalance         *backtest.Frequency `yaml:"rebalance"`
	Budget            *float64            `yaml:"budget"`
}

// loadStrategyFile overlays the keys present in the YAML file on the current
// strategy.
func (c *Config) loadStrategyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read strategy file: %w", err)
	}

	var overlay strategyFile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse strategy file: %w", err)
	}

	if len(overlay.Tickers) > 0 {
		c.Strategy.Tickers = overlay.Tickers
	}
	if overlay.Benchmark != nil {
		c.Strategy.Benchmark = *overlay.Benchmark
	}
	if overlay.StartDate != nil {
		c.Strategy.StartDate = *overlay.StartDate
	}
	if overlay.RiskFreeRate != nil {
		c.Strategy.RiskFreeRate = *overlay.RiskFreeRate
	}
	if overlay.ShortWindow != nil {
		c.Strategy.ShortWindow = *overlay.ShortWindow
	}
	if overlay.LongWindow != nil {
		c.Strategy.LongWindow = *overlay.LongWindow
	}
	if overlay.SelectionFraction != nil {
		c.Strategy.SelectionFraction = *overlay.SelectionFraction
	}
	if overlay.Rebalance != nil {
		c.Strategy.Rebalance = *overlay.Rebalance
	}
	if overlay.Budget != nil {
		c.Strategy.Budget = *overlay.Budget
	}
	return nil
}

// Validate checks if required configuration is present and consistent.
func (c *Config) Validate() error {
	s := c.Strategy
	if len(s.Tickers) == 0 {
		return fmt.Errorf("strategy has no tickers")
	}
	if s.Benchmark == "" {
		return fmt.Errorf("strategy has no benchmark")
	}
	if s.SelectionFraction <= 0 || s.SelectionFraction > 1 {
		return fmt.Errorf("selection fraction must be in (0, 1], got %v", s.SelectionFraction)
	}
	if s.ShortWindow <= 0 || s.LongWindow <= 0 {
		return fmt.Errorf("momentum windows must be positive")
	}
	if s.ShortWindow >= s.LongWindow {
		return fmt.Errorf("short window %d must be below long window %d", s.ShortWindow, s.LongWindow)
	}
	if s.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got %v", s.Budget)
	}
	switch s.Rebalance {
	case backtest.FrequencyNone, backtest.FrequencyMonthly, backtest.FrequencyQuarterly, backtest.FrequencyYearly:
	default:
		return fmt.Errorf("unknown rebalance frequency %q", s.Rebalance)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
