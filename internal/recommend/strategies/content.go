// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package strategies

import (
	"context"
	"fmt"
	"sort"

	"github.com/melodex-app/melodex/internal/recommend"
)

// Content strategy thresholds.
const (
	// contentSeedCount is how many most-played tracks seed the search.
	contentSeedCount = 10

	// contentMinSeedSim is the per-seed similarity a candidate must
	// exceed for that seed to count as a match.
	contentMinSeedSim = 0.5

	// contentMinSeedMatches is how many seeds a candidate must match.
	contentMinSeedMatches = 2

	// Final score blends average and best matching-seed similarity.
	contentAvgWeight = 0.7
	contentMaxWeight = 0.3
)

// Content recommends tracks whose features resemble the listener's
// most-played tracks.
type Content struct {
	cfg recommend.Config
}

// NewContent builds the content strategy.
func NewContent(cfg recommend.Config) *Content {
	return &Content{cfg: cfg}
}

// Name implements recommend.Strategy.
func (s *Content) Name() recommend.StrategyName {
	return recommend.StrategyContent
}

// Score implements recommend.Strategy. Without play history there are
// no seeds and the strategy returns zero rows.
func (s *Content) Score(ctx context.Context, in *recommend.Inputs) ([]recommend.StrategyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seeds := s.seedTracks(in)
	if len(seeds) == 0 {
		return nil, nil
	}

	genreSim := in.GenreSimilarityFor

	var results []recommend.StrategyResult
	for _, f := range candidates(in, s.cfg.ReplayFloor) {
		var sum, best float64
		matches := 0
		for _, seed := range seeds {
			sim := recommend.FeatureSimilarity(seed, f, genreSim)
			if sim <= contentMinSeedSim {
				continue
			}
			matches++
			sum += sim
			if sim > best {
				best = sim
			}
		}
		if matches < contentMinSeedMatches {
			continue
		}

		score := contentAvgWeight*(sum/float64(matches)) + contentMaxWeight*best
		results = append(results, recommend.StrategyResult{
			TrackID:  f.TrackID,
			ArtistID: f.ArtistID,
			Genre:    f.Genre,
			Score:    clamp01(score),
			Strategy: s.Name(),
			Reason:   fmt.Sprintf("similar to %d of your most played tracks", matches),
		})
	}

	sortResults(in, results)
	return results, nil
}

// seedTracks picks the top played tracks from the window that have a
// feature row, ties broken by popularity then track ID.
func (s *Content) seedTracks(in *recommend.Inputs) []recommend.TrackFeature {
	type played struct {
		feature recommend.TrackFeature
		count   int
	}
	var ranked []played
	for id, count := range in.PlayCounts {
		f, ok := in.Features[id]
		if !ok || count == 0 {
			continue
		}
		ranked = append(ranked, played{feature: f, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		if ranked[i].feature.Popularity != ranked[j].feature.Popularity {
			return ranked[i].feature.Popularity > ranked[j].feature.Popularity
		}
		return ranked[i].feature.TrackID < ranked[j].feature.TrackID
	})
	if len(ranked) > contentSeedCount {
		ranked = ranked[:contentSeedCount]
	}

	seeds := make([]recommend.TrackFeature, len(ranked))
	for i, p := range ranked {
		seeds[i] = p.feature
	}
	return seeds
}
