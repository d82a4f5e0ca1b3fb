// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"sort"
	"time"

	"github.com/melodex-app/melodex/internal/models"
)

// Temporal pattern strength cutoffs on probability.
const (
	patternStrongCutoff   = 0.3
	patternModerateCutoff = 0.1
)

// isWeekend reports whether t falls on Saturday or Sunday.
func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// BuildTemporalPatterns computes per-genre listening probability by
// (hour, weekend) slot: count(genre, slot) / count(all, slot). Patterns
// at or below the moderate cutoff are filtered out as insufficient
// signal. Output sorted by probability descending, then genre/hour.
func BuildTemporalPatterns(cfg Config, events []models.ListeningEvent) []TemporalPattern {
	type slot struct {
		hour    int
		weekend bool
	}
	type key struct {
		genre string
		slot  slot
	}

	slotTotals := make(map[slot]int)
	genreCounts := make(map[key]int)
	for _, ev := range events {
		if !ev.HasGenre() {
			continue
		}
		s := slot{hour: ev.PlayedAt.Hour(), weekend: isWeekend(ev.PlayedAt)}
		slotTotals[s]++
		genreCounts[key{genre: models.NormalizeGenre(ev.Genre), slot: s}]++
	}

	patterns := make([]TemporalPattern, 0, len(genreCounts))
	for k, n := range genreCounts {
		total := slotTotals[k.slot]
		if total == 0 {
			continue
		}
		prob := float64(n) / float64(total)

		var strength string
		switch {
		case prob > patternStrongCutoff:
			strength = PatternStrong
		case prob > patternModerateCutoff:
			strength = PatternModerate
		default:
			// Weak patterns never reach recommendation use.
			continue
		}

		patterns = append(patterns, TemporalPattern{
			Genre:       k.genre,
			Hour:        k.slot.hour,
			IsWeekend:   k.slot.weekend,
			PlayCount:   n,
			Probability: prob,
			Strength:    strength,
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Probability != patterns[j].Probability {
			return patterns[i].Probability > patterns[j].Probability
		}
		if patterns[i].Genre != patterns[j].Genre {
			return patterns[i].Genre < patterns[j].Genre
		}
		if patterns[i].Hour != patterns[j].Hour {
			return patterns[i].Hour < patterns[j].Hour
		}
		return !patterns[i].IsWeekend && patterns[j].IsWeekend
	})
	return patterns
}
