// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"fmt"
	"math"
	"time"
)

// Config holds the engine's tuning parameters. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// WindowDays is the trailing event window the pipeline scores over.
	WindowDays int

	// Weights maps strategy name to its share of the final score.
	// Unlisted strategies contribute with weight zero.
	Weights map[StrategyName]float64

	// RecommendationCount is the default ranked-list size.
	RecommendationCount int

	// QualityFloor drops final recommendations scoring at or below it.
	QualityFloor float64

	// ReplayFloor is the max in-window play count for a track to remain
	// a candidate.
	ReplayFloor int

	// TemporalTolerance widens the hour match in temporal scoring.
	TemporalTolerance time.Duration

	// SessionWindow buckets events into listening sessions for genre
	// co-occurrence.
	SessionWindow time.Duration

	// MinGenrePlays is the floor for a genre to enter the profile.
	MinGenrePlays int

	// MinSharedSessions is the floor for a genre pair to enter the
	// similarity matrix.
	MinSharedSessions int

	// TracksPerGenre caps the feature table per genre.
	TracksPerGenre int

	// PopularityTiers are descending cutoffs. A popularity at or above
	// PopularityTiers[i] lands in tier len(tiers)-i ... concretely the
	// defaults {80, 60, 40, 20} produce tiers 4, 3, 2, 1 and tier 0 below.
	PopularityTiers []int

	// EraBoundaries are descending year cutoffs for era buckets.
	EraBoundaries []int

	// HiddenGemPeak, HiddenGemLow and HiddenGemHigh shape the triangular
	// discovery score over popularity.
	HiddenGemPeak int
	HiddenGemLow  int
	HiddenGemHigh int

	// ConsensusBonus is added per supporting strategy beyond the first.
	ConsensusBonus float64

	// MinArtistSimilarity drops artist pairs below this combined score.
	MinArtistSimilarity float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		WindowDays: 90,
		Weights: map[StrategyName]float64{
			StrategyCollaborative: 0.40,
			StrategyContent:       0.30,
			StrategyTemporal:      0.20,
			StrategyDiscovery:     0.10,
		},
		RecommendationCount: 30,
		QualityFloor:        0.25,
		ReplayFloor:         1,
		TemporalTolerance:   2 * time.Hour,
		SessionWindow:       60 * time.Minute,
		MinGenrePlays:       3,
		MinSharedSessions:   3,
		TracksPerGenre:      50,
		PopularityTiers:     []int{80, 60, 40, 20},
		EraBoundaries:       []int{2020, 2015, 2010, 2000, 1990},
		HiddenGemPeak:       50,
		HiddenGemLow:        20,
		HiddenGemHigh:       90,
		ConsensusBonus:      0.1,
		MinArtistSimilarity: 0.1,
	}
}

// Validate reports the first problem with the configuration.
func (c Config) Validate() error {
	if c.WindowDays <= 0 {
		return fmt.Errorf("window days must be positive, got %d", c.WindowDays)
	}
	if c.RecommendationCount <= 0 {
		return fmt.Errorf("recommendation count must be positive, got %d", c.RecommendationCount)
	}
	if c.QualityFloor < 0 || c.QualityFloor >= 1 {
		return fmt.Errorf("quality floor must be in [0, 1), got %v", c.QualityFloor)
	}
	if c.ReplayFloor < 0 {
		return fmt.Errorf("replay floor must be non-negative, got %d", c.ReplayFloor)
	}
	if c.SessionWindow <= 0 {
		return fmt.Errorf("session window must be positive, got %v", c.SessionWindow)
	}
	if c.MinGenrePlays <= 0 || c.MinSharedSessions <= 0 || c.TracksPerGenre <= 0 {
		return fmt.Errorf("profile floors and per-genre cap must be positive")
	}
	if c.HiddenGemLow >= c.HiddenGemHigh {
		return fmt.Errorf("hidden gem low %d must be below high %d", c.HiddenGemLow, c.HiddenGemHigh)
	}
	if c.HiddenGemPeak < c.HiddenGemLow || c.HiddenGemPeak > c.HiddenGemHigh {
		return fmt.Errorf("hidden gem peak %d outside [%d, %d]", c.HiddenGemPeak, c.HiddenGemLow, c.HiddenGemHigh)
	}

	var sum float64
	for name, w := range c.Weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("weight for %s must be in [0, 1], got %v", name, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("strategy weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}
