// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package strategies

import (
	"context"

	"github.com/melodex-app/melodex/internal/recommend"
)

// Discovery blend weights and thresholds.
const (
	discoveryGenreWeight  = 0.30
	discoveryArtistWeight = 0.30
	discoveryGemWeight    = 0.25
	discoveryEraWeight    = 0.15

	// discoveryKnownGenreScore is the reduced genre novelty for genres
	// already in the profile.
	discoveryKnownGenreScore = 0.3

	// discoveryMinNovelty gates candidates: either genre or artist
	// novelty must exceed it.
	discoveryMinNovelty = 0.5

	// discoveryCap bounds total output.
	discoveryCap = 20
)

// Discovery recommends novel material: unseen genres and artists,
// mid-popularity hidden gems, and eras outside the listener's habit.
type Discovery struct {
	cfg recommend.Config
}

// NewDiscovery builds the discovery strategy.
func NewDiscovery(cfg recommend.Config) *Discovery {
	return &Discovery{cfg: cfg}
}

// Name implements recommend.Strategy.
func (s *Discovery) Name() recommend.StrategyName {
	return recommend.StrategyDiscovery
}

// Score implements recommend.Strategy. Discovery works even with a thin
// profile; with no events at all everything is novel and the hidden gem
// curve does the ranking.
func (s *Discovery) Score(ctx context.Context, in *recommend.Inputs) ([]recommend.StrategyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	knownGenres := make(map[string]struct{}, len(in.Preferences))
	for _, p := range in.Preferences {
		knownGenres[p.Genre] = struct{}{}
	}
	knownArtists := make(map[string]struct{})
	for _, ev := range in.Events {
		knownArtists[ev.ArtistID] = struct{}{}
	}

	// The listener's dominant era, from played tracks with features.
	eraCounts := make(map[string]int)
	for id, count := range in.PlayCounts {
		if f, ok := in.Features[id]; ok && count > 0 {
			eraCounts[f.EraBucket] += count
		}
	}
	dominantEra := ""
	for era, n := range eraCounts {
		if n > eraCounts[dominantEra] || (n == eraCounts[dominantEra] && era < dominantEra) {
			dominantEra = era
		}
	}

	var results []recommend.StrategyResult
	for _, f := range candidates(in, s.cfg.ReplayFloor) {
		genreNovelty := discoveryKnownGenreScore
		if f.Genre == "" {
			genreNovelty = 0
		} else if _, known := knownGenres[f.Genre]; !known {
			genreNovelty = 1.0
		}

		artistNovelty := 0.0
		if _, known := knownArtists[f.ArtistID]; !known {
			artistNovelty = 1.0
		}

		if genreNovelty <= discoveryMinNovelty && artistNovelty <= discoveryMinNovelty {
			continue
		}

		eraBonus := 0.0
		if dominantEra != "" && f.EraBucket != dominantEra {
			eraBonus = 1.0
		}

		score := discoveryGenreWeight*genreNovelty +
			discoveryArtistWeight*artistNovelty +
			discoveryGemWeight*f.HiddenGemScore +
			discoveryEraWeight*eraBonus

		reason := "something new for you"
		if f.HiddenGemScore > 0.5 {
			reason = "hidden gem outside your usual rotation"
		}

		results = append(results, recommend.StrategyResult{
			TrackID:  f.TrackID,
			ArtistID: f.ArtistID,
			Genre:    f.Genre,
			Score:    clamp01(score),
			Strategy: s.Name(),
			Reason:   reason,
		})
	}

	sortResults(in, results)
	if len(results) > discoveryCap {
		results = results[:discoveryCap]
	}
	return results, nil
}
