// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

// Package scheduler triggers recommendation pipeline runs on a fixed
// cadence. It is a suture service; the supervisor restarts it if it
// ever fails.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/melodex-app/melodex/internal/config"
	"github.com/melodex-app/melodex/internal/logging"
	"github.com/melodex-app/melodex/internal/recommend"
)

// Runner is the slice of the engine the scheduler needs.
type Runner interface {
	Run(ctx context.Context, profileID string) error
}

// Scheduler periodically invokes the pipeline for one profile.
type Scheduler struct {
	runner    Runner
	cfg       config.SchedulerConfig
	profileID string
	logger    zerolog.Logger
}

// New builds a scheduler for the given profile.
func New(runner Runner, cfg config.SchedulerConfig, profileID string) *Scheduler {
	return &Scheduler{
		runner:    runner,
		cfg:       cfg,
		profileID: profileID,
		logger:    logging.With().Str("component", "scheduler").Str("profile_id", profileID).Logger(),
	}
}

// Serve implements suture.Service. It runs until the context is
// cancelled. Run failures are logged and retried on the next tick; an
// overlapping run is expected near a slow pipeline and is not an error.
func (s *Scheduler) Serve(ctx context.Context) error {
	if s.cfg.RunOnStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	err := s.runner.Run(runCtx, s.profileID)
	switch {
	case err == nil:
	case errors.Is(err, recommend.ErrRunInProgress):
		s.logger.Debug().Msg("previous run still in flight, skipping tick")
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Error().Err(err).Msg("scheduled run failed")
	}
}

// String names the service in supervisor logs.
func (s *Scheduler) String() string {
	return "scheduler(" + s.profileID + ")"
}
