// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package strategies

import (
	"context"

	"github.com/melodex-app/melodex/internal/recommend"
)

// Popularity ranks unheard tracks purely by catalog popularity. It
// carries zero weight in the default blend; it exists for diagnostics
// and as a registered baseline to compare the personalized strategies
// against.
type Popularity struct {
	cfg recommend.Config
}

// NewPopularity builds the popularity baseline strategy.
func NewPopularity(cfg recommend.Config) *Popularity {
	return &Popularity{cfg: cfg}
}

// Name implements recommend.Strategy.
func (s *Popularity) Name() recommend.StrategyName {
	return recommend.StrategyPopularity
}

// Score implements recommend.Strategy.
func (s *Popularity) Score(ctx context.Context, in *recommend.Inputs) ([]recommend.StrategyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []recommend.StrategyResult
	for _, f := range candidates(in, s.cfg.ReplayFloor) {
		results = append(results, recommend.StrategyResult{
			TrackID:  f.TrackID,
			ArtistID: f.ArtistID,
			Genre:    f.Genre,
			Score:    f.PopularityNorm,
			Strategy: s.Name(),
			Reason:   "widely popular track",
		})
	}

	sortResults(in, results)
	if len(results) > s.cfg.RecommendationCount {
		results = results[:s.cfg.RecommendationCount]
	}
	return results, nil
}
