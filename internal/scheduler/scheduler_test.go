// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/melodex-app/melodex/internal/config"
	"github.com/melodex-app/melodex/internal/recommend"
)

type countingRunner struct {
	runs atomic.Int64
	err  error
}

func (r *countingRunner) Run(context.Context, string) error {
	r.runs.Add(1)
	return r.err
}

func TestSchedulerRunsOnStartupAndTicks(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, config.SchedulerConfig{
		RunInterval:  20 * time.Millisecond,
		RunOnStartup: true,
		RunTimeout:   time.Second,
	}, "default")

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()

	if err := s.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve = %v, want deadline exceeded", err)
	}

	// One startup run plus at least two ticks in ~110ms.
	if got := runner.runs.Load(); got < 3 {
		t.Errorf("runs = %d, want at least 3", got)
	}
}

func TestSchedulerSkipsStartupRunWhenDisabled(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, config.SchedulerConfig{
		RunInterval:  time.Hour,
		RunOnStartup: false,
	}, "default")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = s.Serve(ctx)

	if got := runner.runs.Load(); got != 0 {
		t.Errorf("runs = %d, want 0 without startup run", got)
	}
}

func TestSchedulerToleratesConflictsAndFailures(t *testing.T) {
	for _, runErr := range []error{recommend.ErrRunInProgress, errors.New("boom")} {
		runner := &countingRunner{err: runErr}
		s := New(runner, config.SchedulerConfig{
			RunInterval:  10 * time.Millisecond,
			RunOnStartup: true,
		}, "default")

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		if err := s.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve with %v = %v, want deadline exceeded", runErr, err)
		}
		cancel()

		// The scheduler keeps ticking through failures.
		if got := runner.runs.Load(); got < 2 {
			t.Errorf("runs with %v = %d, want retries to continue", runErr, got)
		}
	}
}
