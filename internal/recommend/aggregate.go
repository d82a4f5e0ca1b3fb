// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/melodex-app/melodex/internal/models"
)

// confidenceMediumFloor is the final-score cutoff that lifts a
// single-supporter row to medium confidence.
const confidenceMediumFloor = 0.6

// aggregate merges strategy outputs into the final ranked list:
// weight, group by track, consensus bonus, confidence, quality floor,
// deterministic rank order.
func aggregate(cfg Config, byStrategy map[StrategyName][]StrategyResult, tracks map[string]models.Track, artists map[string]models.Artist, features map[string]TrackFeature) []Recommendation {
	type merged struct {
		score      float64
		strategies []StrategyName
		reasons    map[StrategyName]string
	}

	rows := make(map[string]*merged)

	names := make([]StrategyName, 0, len(byStrategy))
	for name := range byStrategy {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, name := range names {
		weight := cfg.Weights[name]
		if weight == 0 {
			continue
		}
		for _, r := range byStrategy[name] {
			m := rows[r.TrackID]
			if m == nil {
				m = &merged{reasons: make(map[StrategyName]string)}
				rows[r.TrackID] = m
			}
			m.score += r.Score * weight
			m.strategies = append(m.strategies, name)
			m.reasons[name] = r.Reason
		}
	}

	recs := make([]Recommendation, 0, len(rows))
	for trackID, m := range rows {
		support := len(m.strategies)
		final := m.score + float64(support-1)*cfg.ConsensusBonus

		var conf Confidence
		switch {
		case support >= 3:
			conf = ConfidenceHigh
		case support >= 2 || final > confidenceMediumFloor:
			conf = ConfidenceMedium
		default:
			conf = ConfidenceSingle
		}

		if final <= cfg.QualityFloor {
			continue
		}

		t := tracks[trackID]
		recs = append(recs, Recommendation{
			TrackID:      trackID,
			TrackName:    t.Name,
			ArtistID:     t.ArtistID,
			ArtistName:   artists[t.ArtistID].Name,
			Genre:        features[trackID].Genre,
			FinalScore:   final,
			Confidence:   conf,
			SupportCount: support,
			Strategies:   m.strategies,
			Popularity:   t.Popularity,
			Reason:       reasonFor(m.strategies, m.reasons),
		})
	}

	sortRecommendations(recs)
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

// sortRecommendations applies the reproducible rank order: final score,
// then support count, then popularity, all descending, with track ID
// ascending as the stable last resort.
func sortRecommendations(recs []Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].FinalScore != recs[j].FinalScore {
			return recs[i].FinalScore > recs[j].FinalScore
		}
		if recs[i].SupportCount != recs[j].SupportCount {
			return recs[i].SupportCount > recs[j].SupportCount
		}
		if recs[i].Popularity != recs[j].Popularity {
			return recs[i].Popularity > recs[j].Popularity
		}
		return recs[i].TrackID < recs[j].TrackID
	})
}

// reasonFor derives the human-readable justification from the
// contributing strategies.
func reasonFor(strategies []StrategyName, reasons map[StrategyName]string) string {
	if len(strategies) > 1 {
		parts := make([]string, len(strategies))
		for i, s := range strategies {
			parts[i] = string(s)
		}
		return fmt.Sprintf("multiple strategies agree (%s)", strings.Join(parts, ", "))
	}
	if len(strategies) == 1 {
		if r := reasons[strategies[0]]; r != "" {
			return r
		}
		return fmt.Sprintf("recommended by %s strategy", strategies[0])
	}
	return ""
}

// popularityFallback ranks the whole catalog by popularity for cold
// start. Always returns up to n rows if the catalog has them.
func popularityFallback(tracks map[string]models.Track, artists map[string]models.Artist, n int) []Recommendation {
	ids := make([]string, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if tracks[ids[i]].Popularity != tracks[ids[j]].Popularity {
			return tracks[ids[i]].Popularity > tracks[ids[j]].Popularity
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}

	recs := make([]Recommendation, 0, len(ids))
	for i, id := range ids {
		t := tracks[id]
		recs = append(recs, Recommendation{
			Rank:         i + 1,
			TrackID:      id,
			TrackName:    t.Name,
			ArtistID:     t.ArtistID,
			ArtistName:   artists[t.ArtistID].Name,
			Genre:        models.NormalizeGenre(t.Genre),
			FinalScore:   float64(t.Popularity) / 100.0,
			Confidence:   ConfidenceSingle,
			SupportCount: 1,
			Strategies:   []StrategyName{StrategyPopularity},
			Popularity:   t.Popularity,
			Reason:       "popular track (no listening history yet)",
		})
	}
	return recs
}
