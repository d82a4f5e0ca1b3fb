// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"time"

	"github.com/melodex-app/melodex/internal/models"
)

// Feature similarity blend weights.
const (
	featureSimGenreWeight    = 0.30
	featureSimPopWeight      = 0.25
	featureSimDurationWeight = 0.20
	featureSimTierWeight     = 0.15
	featureSimEraWeight      = 0.10
)

// genreSimLookup returns the combined similarity for a genre pair from
// a similarity table, order-insensitive. Identical genres score 1.0.
func genreSimLookup(sims []GenreSimilarity, a, b string) float64 {
	a, b = models.NormalizeGenre(a), models.NormalizeGenre(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if a > b {
		a, b = b, a
	}
	for _, s := range sims {
		if s.GenreA == a && s.GenreB == b {
			return s.Combined
		}
	}
	return 0
}

// FeatureSimilarity scores how alike two feature rows are, in [0, 1].
// genreSim resolves relatedness between distinct genres; exact genre
// matches always score the full genre component.
func FeatureSimilarity(a, b TrackFeature, genreSim func(a, b string) float64) float64 {
	var genreScore float64
	if a.Genre != "" && a.Genre == b.Genre {
		genreScore = 1.0
	} else if genreSim != nil {
		genreScore = genreSim(a.Genre, b.Genre)
	}

	popDiff := a.Popularity - b.Popularity
	if popDiff < 0 {
		popDiff = -popDiff
	}
	popScore := 1.0 - float64(popDiff)/100.0

	tierDiff := a.PopularityTier - b.PopularityTier
	if tierDiff < 0 {
		tierDiff = -tierDiff
	}
	tierScore := 1.0 - float64(tierDiff)/4.0
	if tierScore < 0 {
		tierScore = 0
	}

	var eraScore float64
	if a.EraBucket == b.EraBucket && a.EraBucket != eraUnknown {
		eraScore = 1.0
	}

	return featureSimGenreWeight*genreScore +
		featureSimPopWeight*popScore +
		featureSimDurationWeight*DurationCloseness(a.DurationBucket, b.DurationBucket) +
		featureSimTierWeight*tierScore +
		featureSimEraWeight*eraScore
}

// TemporalRelevance scores how well a pattern's slot matches the
// caller's current slot. Exact hour and weekend match is 1.0, an hour
// within tolerance on the matching weekend side is 0.8, weekend-only is
// 0.6, hour-only is 0.4, anything else 0.2.
func TemporalRelevance(p TemporalPattern, hour int, weekend bool, tolerance time.Duration) float64 {
	hourMatch := p.Hour == hour
	hourNear := hourMatch || hourDistance(p.Hour, hour) <= int(tolerance.Hours())
	weekendMatch := p.IsWeekend == weekend

	switch {
	case hourMatch && weekendMatch:
		return 1.0
	case hourNear && weekendMatch:
		return 0.8
	case weekendMatch:
		return 0.6
	case hourNear:
		return 0.4
	default:
		return 0.2
	}
}

// hourDistance is the circular distance between two hours of day.
func hourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 12 {
		d = 24 - d
	}
	return d
}
