// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"math"
	"sort"
	"time"

	"github.com/melodex-app/melodex/internal/models"
)

// currentWindow and veryRecentWindow classify how live a preference is.
const (
	currentWindow    = 30 * 24 * time.Hour
	veryRecentWindow = 7 * 24 * time.Hour
)

// strengthFor buckets a weighted preference score.
func strengthFor(score float64) PreferenceStrength {
	switch {
	case score >= 50:
		return StrengthHigh
	case score >= 20:
		return StrengthMedium
	case score >= 10:
		return StrengthLow
	default:
		return StrengthMinimal
	}
}

// BuildProfile aggregates events into the per-genre preference profile.
// weighted_preference = play_count * exp(-mean_days_since_play / 30).
// Genres below cfg.MinGenrePlays plays are omitted entirely; the output
// is sorted by score descending, ties by genre name.
func BuildProfile(cfg Config, now time.Time, events []models.ListeningEvent) []GenrePreference {
	type acc struct {
		plays    int
		ageSum   float64
		artists  map[string]struct{}
		tracks   map[string]struct{}
		first    time.Time
		last     time.Time
		hourHist [24]int
	}

	byGenre := make(map[string]*acc)
	total := 0
	for _, ev := range events {
		if !ev.HasGenre() {
			continue
		}
		g := models.NormalizeGenre(ev.Genre)
		a := byGenre[g]
		if a == nil {
			a = &acc{
				artists: make(map[string]struct{}),
				tracks:  make(map[string]struct{}),
				first:   ev.PlayedAt,
				last:    ev.PlayedAt,
			}
			byGenre[g] = a
		}
		a.plays++
		total++
		ageDays := now.Sub(ev.PlayedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		a.ageSum += ageDays
		a.artists[ev.ArtistID] = struct{}{}
		a.tracks[ev.TrackID] = struct{}{}
		if ev.PlayedAt.Before(a.first) {
			a.first = ev.PlayedAt
		}
		if ev.PlayedAt.After(a.last) {
			a.last = ev.PlayedAt
		}
		a.hourHist[ev.PlayedAt.Hour()]++
	}

	prefs := make([]GenrePreference, 0, len(byGenre))
	for genre, a := range byGenre {
		if a.plays < cfg.MinGenrePlays {
			continue
		}
		meanAge := a.ageSum / float64(a.plays)
		score := float64(a.plays) * math.Exp(-meanAge/decayHalfLifeDays)

		peakHour := 0
		for h, n := range a.hourHist {
			if n > a.hourHist[peakHour] {
				peakHour = h
			}
		}

		var share float64
		if total > 0 {
			share = 100 * float64(a.plays) / float64(total)
		}

		prefs = append(prefs, GenrePreference{
			Genre:          genre,
			PlayCount:      a.plays,
			WeightedPlays:  score,
			UniqueArtists:  len(a.artists),
			UniqueTracks:   len(a.tracks),
			Score:          score,
			Strength:       strengthFor(score),
			IsCurrent:      now.Sub(a.last) <= currentWindow,
			IsVeryRecent:   now.Sub(a.last) <= veryRecentWindow,
			LastPlayedAt:   a.last,
			FirstPlayedAt:  a.first,
			SharePercent:   share,
			PeakListenHour: peakHour,
		})
	}

	sort.Slice(prefs, func(i, j int) bool {
		if prefs[i].Score != prefs[j].Score {
			return prefs[i].Score > prefs[j].Score
		}
		return prefs[i].Genre < prefs[j].Genre
	})
	return prefs
}
