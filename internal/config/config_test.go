package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/modules/backtest"
)

func TestDefaultStrategy(t *testing.T) {
	s := DefaultStrategy()

	assert.Len(t, s.Tickers, 20)
	assert.Contains(t, s.Tickers, "SPY")
	assert.Equal(t, "SPY", s.Benchmark)
	assert.Equal(t, 0.3, s.SelectionFraction)
	assert.Equal(t, backtest.FrequencyQuarterly, s.Rebalance)
	assert.Equal(t, 100000.0, s.Budget)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QUANTFOLIO_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, DefaultStrategy().Tickers, cfg.Strategy.Tickers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUANTFOLIO_DATA_DIR", t.TempDir())
	t.Setenv("QUANTFOLIO_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
}

func TestLoad_StrategyFileOverlay(t *testing.T) {
	dir := t.TempDir()
	strategyPath := filepath.Join(dir, "strategy.yaml")
	yaml := `
tickers: [AAA, BBB, CCC]
benchmark: AAA
selection_fraction: 0.5
budget: 5000
rebalance: monthly
`
	require.NoError(t, os.WriteFile(strategyPath, []byte(yaml), 0o644))

	t.Setenv("QUANTFOLIO_DATA_DIR", dir)
	t.Setenv("QUANTFOLIO_STRATEGY_FILE", strategyPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, cfg.Strategy.Tickers)
	assert.Equal(t, "AAA", cfg.Strategy.Benchmark)
	assert.Equal(t, 0.5, cfg.Strategy.SelectionFraction)
	assert.Equal(t, 5000.0, cfg.Strategy.Budget)
	assert.Equal(t, backtest.FrequencyMonthly, cfg.Strategy.Rebalance)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 126, cfg.Strategy.ShortWindow)
	assert.Equal(t, 0.02, cfg.Strategy.RiskFreeRate)
}

func TestLoad_StrategyFileExplicitZero(t *testing.T) {
	// An explicit zero in the file must win over the default, not be
	// mistaken for an absent key.
	dir := t.TempDir()
	strategyPath := filepath.Join(dir, "strategy.yaml")
	yaml := `
risk_free_rate: 0
`
	require.NoError(t, os.WriteFile(strategyPath, []byte(yaml), 0o644))

	t.Setenv("QUANTFOLIO_DATA_DIR", dir)
	t.Setenv("QUANTFOLIO_STRATEGY_FILE", strategyPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Strategy.RiskFreeRate)
	assert.Equal(t, 100000.0, cfg.Strategy.Budget)
}

func TestLoad_TickersEnvOverride(t *testing.T) {
	t.Setenv("QUANTFOLIO_DATA_DIR", t.TempDir())
	t.Setenv("QUANTFOLIO_TICKERS", "SPY, GLD, TLT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"SPY", "GLD", "TLT"}, cfg.Strategy.Tickers)
}

func TestLoad_InvalidStrategyFile(t *testing.T) {
	dir := t.TempDir()
	strategyPath := filepath.Join(dir, "strategy.yaml")
	require.NoError(t, os.WriteFile(strategyPath, []byte("tickers: [unclosed"), 0o644))

	t.Setenv("QUANTFOLIO_DATA_DIR", dir)
	t.Setenv("QUANTFOLIO_STRATEGY_FILE", strategyPath)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	base := func() *Config {
		return &Config{Strategy: DefaultStrategy()}
	}

	cfg := base()
	cfg.Strategy.Tickers = nil
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Strategy.Benchmark = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Strategy.SelectionFraction = 1.5
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Strategy.ShortWindow = 300
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Strategy.Budget = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Strategy.Rebalance = "weekly"
	assert.Error(t, cfg.Validate())

	assert.NoError(t, base().Validate())
}
