// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/melodex-app/melodex/internal/models"
)

// decayHalfLifeDays is the recency half-life shared by freshness and
// preference decay.
const decayHalfLifeDays = 30.0

// durationBucketBounds are the upper bounds in milliseconds for the
// first five duration buckets; anything longer is "epic".
var durationBucketBounds = []struct {
	upperMS int
	name    string
}{
	{120_000, "very_short"},
	{180_000, "short"},
	{240_000, "medium"},
	{300_000, "long"},
	{420_000, "very_long"},
}

// durationBucketEpic names the open-ended final bucket.
const durationBucketEpic = "epic"

// eraUnknown is the fallback era for tracks without a release year.
// Bad or missing dates degrade to this bucket, never to an error.
const eraUnknown = "unknown"

// DurationBucket maps a track duration to its bucket name.
func DurationBucket(durationMS int) string {
	for _, b := range durationBucketBounds {
		if durationMS < b.upperMS {
			return b.name
		}
	}
	return durationBucketEpic
}

// durationBucketRank returns the bucket's ordinal for closeness math.
func durationBucketRank(name string) int {
	for i, b := range durationBucketBounds {
		if b.name == name {
			return i
		}
	}
	return len(durationBucketBounds)
}

// DurationCloseness returns 1.0 for identical buckets, decreasing
// linearly with bucket distance.
func DurationCloseness(a, b string) float64 {
	dist := durationBucketRank(a) - durationBucketRank(b)
	if dist < 0 {
		dist = -dist
	}
	return 1.0 - float64(dist)/float64(len(durationBucketBounds))
}

// PopularityTier maps popularity to a tier. With the default cutoffs
// {80, 60, 40, 20} the tiers are 4 down to 1, with 0 below the last
// cutoff.
func PopularityTier(popularity int, cutoffs []int) int {
	for i, c := range cutoffs {
		if popularity >= c {
			return len(cutoffs) - i
		}
	}
	return 0
}

// EraBucket maps a release year to its era label. Year 0 means the
// release date was missing or unparseable.
func EraBucket(year int, boundaries []int) string {
	if year == 0 {
		return eraUnknown
	}
	for i, b := range boundaries {
		if year >= b {
			if i == 0 {
				return fmt.Sprintf("%d+", b)
			}
			return fmt.Sprintf("%d-%d", b, boundaries[i-1]-1)
		}
	}
	return "classic"
}

// hiddenGemScore is the triangular discovery curve over popularity:
// zero outside [low, high], 1.0 at the peak, linear on both slopes.
func hiddenGemScore(popularity, peak, low, high int) float64 {
	if popularity < low || popularity > high {
		return 0
	}
	if popularity == peak {
		return 1.0
	}
	if popularity < peak {
		return float64(popularity-low) / float64(peak-low)
	}
	return float64(high-popularity) / float64(high-peak)
}

// freshnessScore decays with days since the most recent play. Tracks
// never played in the window score zero.
func freshnessScore(now, lastPlayed time.Time) float64 {
	if lastPlayed.IsZero() {
		return 0
	}
	days := now.Sub(lastPlayed).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-days / decayHalfLifeDays)
}

// BuildFeatures derives the per-track feature table over the catalog,
// capped per genre at cfg.TracksPerGenre by popularity. Tracks without
// a genre bypass the cap and stay featured so discovery-by-popularity
// still sees them.
func BuildFeatures(cfg Config, now time.Time, tracks map[string]models.Track, artists map[string]models.Artist, events []models.ListeningEvent) map[string]TrackFeature {
	playCounts := make(map[string]int)
	lastPlayed := make(map[string]time.Time)
	for _, ev := range events {
		playCounts[ev.TrackID]++
		if ev.PlayedAt.After(lastPlayed[ev.TrackID]) {
			lastPlayed[ev.TrackID] = ev.PlayedAt
		}
	}

	// Aggregate popularity baselines for the delta features.
	type agg struct {
		sum   int
		count int
	}
	genreAgg := make(map[string]agg)
	artistAgg := make(map[string]agg)
	for _, t := range tracks {
		if g := models.NormalizeGenre(t.Genre); g != "" {
			a := genreAgg[g]
			a.sum += t.Popularity
			a.count++
			genreAgg[g] = a
		}
		a := artistAgg[t.ArtistID]
		a.sum += t.Popularity
		a.count++
		artistAgg[t.ArtistID] = a
	}

	// Per-genre cap: keep the top tracks by popularity, ties by track ID
	// so reruns over the same catalog produce the same table.
	byGenre := make(map[string][]models.Track)
	var noGenre []models.Track
	for _, t := range tracks {
		g := models.NormalizeGenre(t.Genre)
		if g == "" {
			noGenre = append(noGenre, t)
			continue
		}
		byGenre[g] = append(byGenre[g], t)
	}

	kept := make([]models.Track, 0, len(tracks))
	for _, ts := range byGenre {
		sort.Slice(ts, func(i, j int) bool {
			if ts[i].Popularity != ts[j].Popularity {
				return ts[i].Popularity > ts[j].Popularity
			}
			return ts[i].ID < ts[j].ID
		})
		if len(ts) > cfg.TracksPerGenre {
			ts = ts[:cfg.TracksPerGenre]
		}
		kept = append(kept, ts...)
	}
	kept = append(kept, noGenre...)

	features := make(map[string]TrackFeature, len(kept))
	for _, t := range kept {
		g := models.NormalizeGenre(t.Genre)

		var genreDelta, artistDelta float64
		if a := genreAgg[g]; a.count > 0 {
			genreDelta = float64(t.Popularity) - float64(a.sum)/float64(a.count)
		}
		if a := artistAgg[t.ArtistID]; a.count > 0 {
			artistDelta = float64(t.Popularity) - float64(a.sum)/float64(a.count)
		}

		features[t.ID] = TrackFeature{
			TrackID:           t.ID,
			ArtistID:          t.ArtistID,
			Genre:             g,
			Popularity:        t.Popularity,
			PopularityNorm:    float64(t.Popularity) / 100.0,
			PopularityTier:    PopularityTier(t.Popularity, cfg.PopularityTiers),
			DurationBucket:    DurationBucket(t.DurationMS),
			EraBucket:         EraBucket(t.ReleaseYear, cfg.EraBoundaries),
			PlayCountInWindow: playCounts[t.ID],
			Freshness:         freshnessScore(now, lastPlayed[t.ID]),
			HiddenGemScore:    hiddenGemScore(t.Popularity, cfg.HiddenGemPeak, cfg.HiddenGemLow, cfg.HiddenGemHigh),
			GenrePopDelta:     genreDelta,
			ArtistPopDelta:    artistDelta,
		}
	}
	return features
}
