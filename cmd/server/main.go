// Package main is the entry point for the Quantfolio portfolio construction
// service. It wires configuration, the price cache, the pipeline and the HTTP
// API, then runs scheduled refreshes until shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/quantfolio/internal/clients/yahoo"
	"github.com/aristath/quantfolio/internal/config"
	"github.com/aristath/quantfolio/internal/database"
	"github.com/aristath/quantfolio/internal/modules/marketdata"
	"github.com/aristath/quantfolio/internal/modules/optimization"
	"github.com/aristath/quantfolio/internal/modules/snapshots"
	"github.com/aristath/quantfolio/internal/pipeline"
	"github.com/aristath/quantfolio/internal/scheduler"
	"github.com/aristath/quantfolio/internal/server"
	"github.com/aristath/quantfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Quantfolio")

	// Price history cache (sqlite)
	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "history.db"),
		Name: "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer db.Close()
	log.Info().Str("database", db.Name()).Str("path", db.Path()).Msg("History database ready")

	historyDB := marketdata.NewHistoryDB(db.Conn(), log)
	if err := historyDB.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history schema")
	}

	provider := marketdata.NewCachedProvider(yahoo.NewClient(log), historyDB, log)

	solver := optimization.NewMaxSharpeSolver(cfg.Strategy.RiskFreeRate)
	service := pipeline.NewService(provider, solver, log)

	runCfg, err := buildRunConfig(cfg.Strategy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid strategy configuration")
	}

	store := snapshots.NewStore(filepath.Join(cfg.DataDir, "latest-run.msgpack"), log)

	srv := server.New(server.Config{
		Log:     log,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Runner:  service,
		RunCfg:  runCfg,
	})

	// Serve the last persisted run until the first scheduled refresh lands.
	if saved, err := store.Load(); err == nil {
		srv.Publish(saved)
		log.Info().Str("run_id", saved.ID).Time("generated_at", saved.GeneratedAt).
			Msg("Restored previous run from snapshot")
	} else if !errors.Is(err, snapshots.ErrNoSnapshot) {
		log.Warn().Err(err).Msg("Failed to restore snapshot")
	}

	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshJob(service, store, runCfg, srv.Publish, log)
	if err := sched.AddJob(cfg.RefreshCron, refreshJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RefreshCron).Msg("Failed to register refresh job")
	}
	sched.Start()

	// Warm up in the background so the API has data shortly after boot.
	if srv.Latest() == nil {
		go func() {
			if err := sched.RunNow(refreshJob); err != nil {
				log.Error().Err(err).Msg("Initial pipeline run failed")
			}
		}()
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// buildRunConfig maps the strategy settings onto a pipeline run. The end
// date is left open; every run extends to the day it executes.
func buildRunConfig(s config.Strategy) (pipeline.Config, error) {
	start, err := time.Parse("2006-01-02", s.StartDate)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		Tickers:           s.Tickers,
		Benchmark:         s.Benchmark,
		RiskFreeRate:      s.RiskFreeRate,
		ShortWindow:       s.ShortWindow,
		LongWindow:        s.LongWindow,
		SelectionFraction: s.SelectionFraction,
		Rebalance:         s.Rebalance,
		Budget:            s.Budget,
		Start:             start,
	}, nil
}
