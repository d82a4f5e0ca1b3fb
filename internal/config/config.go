// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

// Package config loads and validates Melodex configuration.
//
// Configuration is layered with koanf: struct defaults, then an optional
// YAML file, then environment variables. Validation runs once at load
// time; no component ever sees an invalid configuration.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Melodex server.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

// DatabaseConfig configures the DuckDB store holding the event log and
// catalog.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" is accepted for tests.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory is the DuckDB memory limit (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"gt=0,lte=65535"`

	// Timeout bounds request handling end to end.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitRequests is the per-client request budget per minute.
	RateLimitRequests int `koanf:"rate_limit_requests" validate:"gt=0"`

	// CORSOrigins lists allowed origins. Defaults to all.
	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StrategyWeights holds the hybrid blend weights. The weights must sum
// to 1.0; this is business configuration, not tunable at request time.
type StrategyWeights struct {
	Collaborative float64 `koanf:"collaborative" validate:"gte=0,lte=1"`
	Content       float64 `koanf:"content" validate:"gte=0,lte=1"`
	Temporal      float64 `koanf:"temporal" validate:"gte=0,lte=1"`
	Discovery     float64 `koanf:"discovery" validate:"gte=0,lte=1"`
}

// Sum returns the total of all weights.
func (w StrategyWeights) Sum() float64 {
	return w.Collaborative + w.Content + w.Temporal + w.Discovery
}

// RecommendConfig configures the scoring pipeline. The tier, era and
// hidden-gem boundaries are empirically chosen defaults, deliberately
// exposed as configuration rather than constants.
type RecommendConfig struct {
	// WindowDays is the trailing event-log window the pipeline scores over.
	WindowDays int `koanf:"window_days" validate:"gt=0"`

	// Weights are the hybrid strategy weights (must sum to 1.0).
	Weights StrategyWeights `koanf:"strategy_weights"`

	// RecommendationCount is the default size of the emitted ranked list.
	RecommendationCount int `koanf:"recommendation_count" validate:"gt=0"`

	// QualityFloor drops recommendations at or below this final score.
	QualityFloor float64 `koanf:"quality_floor" validate:"gte=0,lt=1"`

	// ReplayFloor is the maximum play count in the window for a track to
	// still count as "unheard" and be a candidate.
	ReplayFloor int `koanf:"replay_floor" validate:"gte=0"`

	// TemporalToleranceHours widens the hour match for temporal scoring.
	TemporalToleranceHours int `koanf:"temporal_tolerance_hours" validate:"gte=0,lte=12"`

	// SessionMinutes is the bucket used to define a listening session for
	// genre co-occurrence.
	SessionMinutes int `koanf:"session_minutes" validate:"gt=0"`

	// MinGenrePlays is the reliability floor for a genre to enter the
	// preference profile.
	MinGenrePlays int `koanf:"min_genre_plays" validate:"gt=0"`

	// MinSharedSessions is the co-occurrence floor for a genre pair to
	// enter the similarity matrix.
	MinSharedSessions int `koanf:"min_shared_sessions" validate:"gt=0"`

	// TracksPerGenre caps the feature table per genre (top by popularity).
	TracksPerGenre int `koanf:"tracks_per_genre" validate:"gt=0"`

	// PopularityTiers are the descending popularity cutoffs for tiers 4..1.
	PopularityTiers []int `koanf:"popularity_tiers"`

	// EraBoundaries are the descending release-year cutoffs for era buckets.
	EraBoundaries []int `koanf:"era_boundaries"`

	// HiddenGemPeak is the popularity where the discovery gem score peaks.
	HiddenGemPeak int `koanf:"hidden_gem_peak" validate:"gte=0,lte=100"`

	// HiddenGemLow / HiddenGemHigh bound the non-zero gem range.
	HiddenGemLow  int `koanf:"hidden_gem_low" validate:"gte=0,lte=100"`
	HiddenGemHigh int `koanf:"hidden_gem_high" validate:"gte=0,lte=100"`
}

// SchedulerConfig configures the periodic pipeline runner.
type SchedulerConfig struct {
	// RunInterval is the cadence of scheduled pipeline runs.
	RunInterval time.Duration `koanf:"run_interval"`

	// RunOnStartup triggers a run immediately when the service starts.
	RunOnStartup bool `koanf:"run_on_startup"`

	// RunTimeout bounds a single pipeline run.
	RunTimeout time.Duration `koanf:"run_timeout"`
}

// weightSumTolerance absorbs float rounding in user-supplied weights.
const weightSumTolerance = 1e-6

var validate = validator.New()

// Validate checks the configuration and returns a descriptive error for
// the first problem found. It runs before any pipeline stage; an invalid
// configuration never reaches the engine.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	if diff := math.Abs(c.Recommend.Weights.Sum() - 1.0); diff > weightSumTolerance {
		return fmt.Errorf("recommend.strategy_weights must sum to 1.0, got %.4f", c.Recommend.Weights.Sum())
	}

	if c.Recommend.HiddenGemLow >= c.Recommend.HiddenGemHigh {
		return fmt.Errorf("recommend.hidden_gem_low (%d) must be below hidden_gem_high (%d)",
			c.Recommend.HiddenGemLow, c.Recommend.HiddenGemHigh)
	}
	if c.Recommend.HiddenGemPeak < c.Recommend.HiddenGemLow || c.Recommend.HiddenGemPeak > c.Recommend.HiddenGemHigh {
		return fmt.Errorf("recommend.hidden_gem_peak (%d) must lie within [%d, %d]",
			c.Recommend.HiddenGemPeak, c.Recommend.HiddenGemLow, c.Recommend.HiddenGemHigh)
	}

	for i := 1; i < len(c.Recommend.PopularityTiers); i++ {
		if c.Recommend.PopularityTiers[i] >= c.Recommend.PopularityTiers[i-1] {
			return fmt.Errorf("recommend.popularity_tiers must be strictly descending, got %v", c.Recommend.PopularityTiers)
		}
	}
	for i := 1; i < len(c.Recommend.EraBoundaries); i++ {
		if c.Recommend.EraBoundaries[i] >= c.Recommend.EraBoundaries[i-1] {
			return fmt.Errorf("recommend.era_boundaries must be strictly descending, got %v", c.Recommend.EraBoundaries)
		}
	}

	if c.Scheduler.RunInterval <= 0 {
		return fmt.Errorf("scheduler.run_interval must be positive, got %v", c.Scheduler.RunInterval)
	}
	if c.Scheduler.RunTimeout <= 0 {
		return fmt.Errorf("scheduler.run_timeout must be positive, got %v", c.Scheduler.RunTimeout)
	}

	return nil
}
