// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"fmt"
	"testing"
	"time"

	"github.com/melodex-app/melodex/internal/models"
)

func TestDurationBucket(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{90_000, "very_short"},
		{119_999, "very_short"},
		{120_000, "short"},
		{200_000, "medium"},
		{250_000, "long"},
		{350_000, "very_long"},
		{420_000, "epic"},
		{600_000, "epic"},
	}
	for _, tt := range tests {
		if got := DurationBucket(tt.ms); got != tt.want {
			t.Errorf("DurationBucket(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestPopularityTier(t *testing.T) {
	cutoffs := []int{80, 60, 40, 20}
	tests := []struct {
		pop  int
		want int
	}{
		{95, 4}, {80, 4}, {79, 3}, {60, 3}, {45, 2}, {25, 1}, {19, 0}, {0, 0},
	}
	for _, tt := range tests {
		if got := PopularityTier(tt.pop, cutoffs); got != tt.want {
			t.Errorf("PopularityTier(%d) = %d, want %d", tt.pop, got, tt.want)
		}
	}
}

func TestEraBucket(t *testing.T) {
	boundaries := []int{2020, 2015, 2010, 2000, 1990}
	tests := []struct {
		year int
		want string
	}{
		{2024, "2020+"},
		{2020, "2020+"},
		{2017, "2015-2019"},
		{2012, "2010-2014"},
		{2005, "2000-2009"},
		{1995, "1990-1999"},
		{1975, "classic"},
		{0, "unknown"},
	}
	for _, tt := range tests {
		if got := EraBucket(tt.year, boundaries); got != tt.want {
			t.Errorf("EraBucket(%d) = %q, want %q", tt.year, got, tt.want)
		}
	}
}

func TestHiddenGemScore(t *testing.T) {
	tests := []struct {
		pop  int
		want float64
	}{
		{50, 1.0},
		{20, 0.0},
		{90, 0.0},
		{35, 0.5},
		{70, 0.5},
		{10, 0.0},
		{95, 0.0},
	}
	for _, tt := range tests {
		got := hiddenGemScore(tt.pop, 50, 20, 90)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("hiddenGemScore(%d) = %v, want %v", tt.pop, got, tt.want)
		}
	}
}

func TestBuildFeaturesPerGenreCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TracksPerGenre = 3

	tracks := make(map[string]models.Track)
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("t%02d", i)
		tracks[id] = models.Track{ID: id, ArtistID: "a1", Genre: "rock", Popularity: 50 + i}
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	features := BuildFeatures(cfg, now, tracks, nil, nil)

	if len(features) != 3 {
		t.Fatalf("got %d features, want 3 after per-genre cap", len(features))
	}
	// The three most popular rock tracks survive.
	for _, id := range []string{"t09", "t08", "t07"} {
		if _, ok := features[id]; !ok {
			t.Errorf("expected %s to survive the cap", id)
		}
	}
}

func TestBuildFeaturesNoGenreBypassesCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TracksPerGenre = 1

	tracks := map[string]models.Track{
		"t1": {ID: "t1", ArtistID: "a1", Genre: "rock", Popularity: 80},
		"t2": {ID: "t2", ArtistID: "a1", Genre: "rock", Popularity: 70},
		"t3": {ID: "t3", ArtistID: "a2", Popularity: 60},
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	features := BuildFeatures(cfg, now, tracks, nil, nil)

	if _, ok := features["t3"]; !ok {
		t.Error("genreless track should stay featured")
	}
	if _, ok := features["t2"]; ok {
		t.Error("t2 should have been capped out of the rock genre")
	}
	if got := features["t3"].EraBucket; got != "unknown" {
		t.Errorf("genreless track era = %q, want unknown", got)
	}
}

func TestBuildFeaturesFreshnessAndPlayCount(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tracks := map[string]models.Track{
		"t1": {ID: "t1", ArtistID: "a1", Genre: "rock", Popularity: 50},
		"t2": {ID: "t2", ArtistID: "a1", Genre: "rock", Popularity: 40},
	}
	events := []models.ListeningEvent{
		{TrackID: "t1", ArtistID: "a1", Genre: "rock", PlayedAt: now.Add(-24 * time.Hour)},
		{TrackID: "t1", ArtistID: "a1", Genre: "rock", PlayedAt: now.Add(-48 * time.Hour)},
	}

	features := BuildFeatures(cfg, now, tracks, nil, events)

	if got := features["t1"].PlayCountInWindow; got != 2 {
		t.Errorf("t1 play count = %d, want 2", got)
	}
	if got := features["t1"].Freshness; got <= 0 || got > 1 {
		t.Errorf("t1 freshness = %v, want in (0, 1]", got)
	}
	if got := features["t2"].Freshness; got != 0 {
		t.Errorf("unplayed track freshness = %v, want 0", got)
	}
}
