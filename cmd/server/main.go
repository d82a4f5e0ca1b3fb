// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

// Command server runs the Melodex recommendation service: the DuckDB
// store, the scoring engine with its scheduled pipeline, and the HTTP
// API, all under one supervision tree.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/melodex-app/melodex/internal/api"
	"github.com/melodex-app/melodex/internal/config"
	"github.com/melodex-app/melodex/internal/database"
	"github.com/melodex-app/melodex/internal/logging"
	"github.com/melodex-app/melodex/internal/models"
	"github.com/melodex-app/melodex/internal/recommend"
	"github.com/melodex-app/melodex/internal/recommend/strategies"
	"github.com/melodex-app/melodex/internal/scheduler"
	"github.com/melodex-app/melodex/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "melodex: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.With().Str("component", "main").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("closing database")
		}
	}()

	engineCfg := engineConfig(cfg.Recommend)
	engine, err := recommend.NewEngine(engineCfg, db)
	if err != nil {
		return err
	}
	for _, s := range []recommend.Strategy{
		strategies.NewCollaborative(engineCfg),
		strategies.NewContent(engineCfg),
		strategies.NewTemporal(engineCfg),
		strategies.NewDiscovery(engineCfg),
		strategies.NewPopularity(engineCfg),
	} {
		if err := engine.Register(s); err != nil {
			return err
		}
	}

	tree := supervisor.New(supervisor.DefaultConfig())
	tree.Add(scheduler.New(engine, cfg.Scheduler, models.DefaultProfileID))
	tree.Add(api.NewServer(api.NewHandler(engine, db, cfg.Server)))

	logger.Info().Int("port", cfg.Server.Port).Msg("melodex starting")
	err = tree.Serve(ctx)
	if err != nil && err != context.Canceled {
		return err
	}
	logger.Info().Msg("melodex stopped")
	return nil
}

// engineConfig maps the loaded configuration onto the engine's tuning
// parameters.
func engineConfig(rc config.RecommendConfig) recommend.Config {
	cfg := recommend.DefaultConfig()
	cfg.WindowDays = rc.WindowDays
	cfg.Weights = map[recommend.StrategyName]float64{
		recommend.StrategyCollaborative: rc.Weights.Collaborative,
		recommend.StrategyContent:       rc.Weights.Content,
		recommend.StrategyTemporal:      rc.Weights.Temporal,
		recommend.StrategyDiscovery:     rc.Weights.Discovery,
	}
	cfg.RecommendationCount = rc.RecommendationCount
	cfg.QualityFloor = rc.QualityFloor
	cfg.ReplayFloor = rc.ReplayFloor
	cfg.TemporalTolerance = time.Duration(rc.TemporalToleranceHours) * time.Hour
	cfg.SessionWindow = time.Duration(rc.SessionMinutes) * time.Minute
	cfg.MinGenrePlays = rc.MinGenrePlays
	cfg.MinSharedSessions = rc.MinSharedSessions
	cfg.TracksPerGenre = rc.TracksPerGenre
	cfg.PopularityTiers = rc.PopularityTiers
	cfg.EraBoundaries = rc.EraBoundaries
	cfg.HiddenGemPeak = rc.HiddenGemPeak
	cfg.HiddenGemLow = rc.HiddenGemLow
	cfg.HiddenGemHigh = rc.HiddenGemHigh
	return cfg
}
