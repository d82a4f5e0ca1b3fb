// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package strategies

import (
	"sort"

	"github.com/melodex-app/melodex/internal/recommend"
)

// candidates returns the unheard feature rows, sorted by track ID for
// deterministic iteration. A track is unheard while its in-window play
// count is at or below replayFloor.
func candidates(in *recommend.Inputs, replayFloor int) []recommend.TrackFeature {
	out := make([]recommend.TrackFeature, 0, len(in.Features))
	for _, f := range in.Features {
		if in.PlayCounts[f.TrackID] > replayFloor {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out
}

// sortResults orders results by score descending, then popularity
// descending, then track ID ascending.
func sortResults(in *recommend.Inputs, rs []recommend.StrategyResult) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score > rs[j].Score
		}
		pi, pj := in.Features[rs[i].TrackID].Popularity, in.Features[rs[j].TrackID].Popularity
		if pi != pj {
			return pi > pj
		}
		return rs[i].TrackID < rs[j].TrackID
	})
}

// capPerGroup keeps at most limit results per group key, preserving
// order.
func capPerGroup(rs []recommend.StrategyResult, limit int, key func(recommend.StrategyResult) string) []recommend.StrategyResult {
	counts := make(map[string]int)
	out := rs[:0]
	for _, r := range rs {
		k := key(r)
		if counts[k] >= limit {
			continue
		}
		counts[k]++
		out = append(out, r)
	}
	return out
}

// clamp01 bounds a score into [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
