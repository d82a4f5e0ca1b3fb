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

// Collaborative blend weights and thresholds.
const (
	collabTasteWeight      = 0.60
	collabPopularityWeight = 0.25
	collabFreshnessWeight  = 0.15

	// collabMinSimilarity is the floor for a known genre to count as
	// supporting a candidate genre.
	collabMinSimilarity = 0.3

	// collabMinSupport is how many known genres must support a candidate
	// genre.
	collabMinSupport = 2

	// collabTracksPerGenre caps output per recommended genre.
	collabTracksPerGenre = 3
)

// Collaborative transfers taste between related genres: a candidate
// genre is scored by how strongly the listener's known genres relate to
// it. This substitutes for multi-user collaborative filtering in a
// single-listener system.
type Collaborative struct {
	cfg recommend.Config
}

// NewCollaborative builds the collaborative strategy.
func NewCollaborative(cfg recommend.Config) *Collaborative {
	return &Collaborative{cfg: cfg}
}

// Name implements recommend.Strategy.
func (s *Collaborative) Name() recommend.StrategyName {
	return recommend.StrategyCollaborative
}

// Score implements recommend.Strategy. With no preference profile or no
// genre similarity data it returns zero rows.
func (s *Collaborative) Score(ctx context.Context, in *recommend.Inputs) ([]recommend.StrategyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(in.Preferences) == 0 || len(in.GenreSims) == 0 {
		return nil, nil
	}

	// Preferences are normalized by the profile's top score so the taste
	// component stays in [0, 1].
	maxPref := in.Preferences[0].Score
	for _, p := range in.Preferences {
		if p.Score > maxPref {
			maxPref = p.Score
		}
	}
	if maxPref <= 0 {
		return nil, nil
	}

	// genre -> taste transfer score, for genres with enough support.
	type genreScore struct {
		taste   float64
		support int
	}
	genreScores := make(map[string]genreScore)
	for _, f := range in.Features {
		if f.Genre == "" {
			continue
		}
		if _, done := genreScores[f.Genre]; done {
			continue
		}
		var sum float64
		var support int
		for _, p := range in.Preferences {
			if p.Genre == f.Genre {
				continue
			}
			sim := in.GenreSimilarityFor(p.Genre, f.Genre)
			if sim < collabMinSimilarity {
				continue
			}
			sum += sim * (p.Score / maxPref)
			support++
		}
		if support >= collabMinSupport {
			genreScores[f.Genre] = genreScore{taste: sum / float64(support), support: support}
		} else {
			genreScores[f.Genre] = genreScore{}
		}
	}

	var results []recommend.StrategyResult
	for _, f := range candidates(in, s.cfg.ReplayFloor) {
		gs := genreScores[f.Genre]
		if gs.support < collabMinSupport {
			continue
		}
		score := collabTasteWeight*gs.taste +
			collabPopularityWeight*f.PopularityNorm +
			collabFreshnessWeight*f.Freshness
		results = append(results, recommend.StrategyResult{
			TrackID:  f.TrackID,
			ArtistID: f.ArtistID,
			Genre:    f.Genre,
			Score:    clamp01(score),
			Strategy: s.Name(),
			Reason:   fmt.Sprintf("related to %d genres you listen to", gs.support),
		})
	}

	sortResults(in, results)
	return capPerGroup(results, collabTracksPerGenre, func(r recommend.StrategyResult) string {
		return r.Genre
	}), nil
}
