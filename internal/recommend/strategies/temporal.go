// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package strategies

import (
	"context"
	"fmt"

	"github.com/melodex-app/melodex/internal/recommend"
)

// Temporal blend weights and thresholds.
const (
	temporalRelevanceWeight   = 0.5
	temporalProbabilityWeight = 0.3
	temporalPopularityWeight  = 0.2

	// temporalMinRelevance drops candidates whose genre pattern does not
	// fit the current slot well enough.
	temporalMinRelevance = 0.4

	// temporalTracksPerGenre caps output per genre.
	temporalTracksPerGenre = 2
)

// Temporal recommends tracks from genres the listener historically
// plays at the current hour and weekend/weekday side.
type Temporal struct {
	cfg recommend.Config
}

// NewTemporal builds the temporal strategy.
func NewTemporal(cfg recommend.Config) *Temporal {
	return &Temporal{cfg: cfg}
}

// Name implements recommend.Strategy.
func (s *Temporal) Name() recommend.StrategyName {
	return recommend.StrategyTemporal
}

// Score implements recommend.Strategy. The run's Now anchors the
// current slot; without temporal patterns it returns zero rows.
func (s *Temporal) Score(ctx context.Context, in *recommend.Inputs) ([]recommend.StrategyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(in.Patterns) == 0 {
		return nil, nil
	}

	hour := in.Now.Hour()
	wd := in.Now.Weekday()
	weekend := wd == 0 || wd == 6

	// Best relevance and probability per genre for the current slot.
	type fit struct {
		relevance   float64
		probability float64
	}
	genreFit := make(map[string]fit)
	for _, p := range in.Patterns {
		rel := recommend.TemporalRelevance(p, hour, weekend, s.cfg.TemporalTolerance)
		f := genreFit[p.Genre]
		if rel > f.relevance || (rel == f.relevance && p.Probability > f.probability) {
			genreFit[p.Genre] = fit{relevance: rel, probability: p.Probability}
		}
	}

	var results []recommend.StrategyResult
	for _, f := range candidates(in, s.cfg.ReplayFloor) {
		gf, ok := genreFit[f.Genre]
		if !ok || gf.relevance < temporalMinRelevance {
			continue
		}
		score := temporalRelevanceWeight*gf.relevance +
			temporalProbabilityWeight*gf.probability +
			temporalPopularityWeight*f.PopularityNorm
		results = append(results, recommend.StrategyResult{
			TrackID:  f.TrackID,
			ArtistID: f.ArtistID,
			Genre:    f.Genre,
			Score:    clamp01(score),
			Strategy: s.Name(),
			Reason:   fmt.Sprintf("you often play %s around this time", f.Genre),
		})
	}

	sortResults(in, results)
	return capPerGroup(results, temporalTracksPerGenre, func(r recommend.StrategyResult) string {
		return r.Genre
	}), nil
}
