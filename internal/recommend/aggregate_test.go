// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"fmt"
	"math"
	"testing"

	"github.com/melodex-app/melodex/internal/models"
)

func TestAggregateConsensusScenario(t *testing.T) {
	cfg := DefaultConfig()
	tracks := map[string]models.Track{
		"t1": {ID: "t1", Name: "Track One", ArtistID: "a1", Genre: "rock", Popularity: 55},
	}
	artists := map[string]models.Artist{"a1": {ID: "a1", Name: "Artist One"}}
	features := map[string]TrackFeature{"t1": {TrackID: "t1", Genre: "rock"}}

	byStrategy := map[StrategyName][]StrategyResult{
		StrategyCollaborative: {{TrackID: "t1", Score: 0.6, Strategy: StrategyCollaborative}},
		StrategyContent:       {{TrackID: "t1", Score: 0.5, Strategy: StrategyContent}},
	}

	recs := aggregate(cfg, byStrategy, tracks, artists, features)
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	r := recs[0]

	// 0.6*0.4 + 0.5*0.3 = 0.39, plus one consensus bonus of 0.1.
	if math.Abs(r.FinalScore-0.49) > 1e-9 {
		t.Errorf("final score = %v, want 0.49", r.FinalScore)
	}
	if r.SupportCount != 2 {
		t.Errorf("support count = %d, want 2", r.SupportCount)
	}
	if r.Confidence != ConfidenceMedium {
		t.Errorf("confidence = %q, want medium", r.Confidence)
	}
	if r.TrackName != "Track One" || r.ArtistName != "Artist One" {
		t.Errorf("names not resolved: %+v", r)
	}
}

func TestAggregateConsensusMonotonicity(t *testing.T) {
	cfg := DefaultConfig()
	tracks := map[string]models.Track{
		"t1": {ID: "t1", ArtistID: "a1", Popularity: 50},
		"t2": {ID: "t2", ArtistID: "a1", Popularity: 50},
	}
	features := map[string]TrackFeature{"t1": {TrackID: "t1"}, "t2": {TrackID: "t2"}}

	// Both tracks get the same collaborative contribution; t2 also gets a
	// discovery contribution. t2 must score strictly higher.
	byStrategy := map[StrategyName][]StrategyResult{
		StrategyCollaborative: {
			{TrackID: "t1", Score: 0.8},
			{TrackID: "t2", Score: 0.8},
		},
		StrategyDiscovery: {
			{TrackID: "t2", Score: 0.5},
		},
	}

	recs := aggregate(cfg, byStrategy, tracks, nil, features)
	scores := make(map[string]float64)
	for _, r := range recs {
		scores[r.TrackID] = r.FinalScore
	}
	if scores["t2"] <= scores["t1"] {
		t.Errorf("t2 (%v) must outscore t1 (%v) with an extra supporting strategy",
			scores["t2"], scores["t1"])
	}
}

func TestAggregateConfidenceBands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QualityFloor = 0
	tracks := map[string]models.Track{"t1": {ID: "t1"}}
	features := map[string]TrackFeature{"t1": {TrackID: "t1"}}

	tests := []struct {
		name       string
		byStrategy map[StrategyName][]StrategyResult
		want       Confidence
	}{
		{
			name: "two supporters with a modest score",
			byStrategy: map[StrategyName][]StrategyResult{
				StrategyCollaborative: {{TrackID: "t1", Score: 0.4}},
				StrategyContent:       {{TrackID: "t1", Score: 0.3}},
			},
			want: ConfidenceMedium,
		},
		{
			name: "single supporter",
			byStrategy: map[StrategyName][]StrategyResult{
				StrategyCollaborative: {{TrackID: "t1", Score: 0.9}},
				StrategyTemporal:      {{TrackID: "t2", Score: 0.9}},
				StrategyDiscovery:     {{TrackID: "t2", Score: 0.9}},
			},
			want: ConfidenceSingle,
		},
		{
			name: "three supporters",
			byStrategy: map[StrategyName][]StrategyResult{
				StrategyCollaborative: {{TrackID: "t1", Score: 0.4}},
				StrategyContent:       {{TrackID: "t1", Score: 0.4}},
				StrategyTemporal:      {{TrackID: "t1", Score: 0.4}},
			},
			want: ConfidenceHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := aggregate(cfg, tt.byStrategy, tracks, nil, features)
			var found *Recommendation
			for i := range recs {
				if recs[i].TrackID == "t1" {
					found = &recs[i]
				}
			}
			if found == nil {
				t.Fatalf("t1 missing from %+v", recs)
			}
			if found.Confidence != tt.want {
				t.Errorf("confidence = %q, want %q", found.Confidence, tt.want)
			}
		})
	}
}

func TestAggregateQualityFloor(t *testing.T) {
	cfg := DefaultConfig()
	tracks := map[string]models.Track{"t1": {ID: "t1"}}
	features := map[string]TrackFeature{"t1": {TrackID: "t1"}}

	// 0.5 * 0.4 = 0.20, at or below the 0.25 floor.
	byStrategy := map[StrategyName][]StrategyResult{
		StrategyCollaborative: {{TrackID: "t1", Score: 0.5}},
	}
	if recs := aggregate(cfg, byStrategy, tracks, nil, features); len(recs) != 0 {
		t.Errorf("rows at or below the quality floor must be dropped, got %+v", recs)
	}
}

func TestAggregateHighConfidenceAtThreeStrategies(t *testing.T) {
	cfg := DefaultConfig()
	tracks := map[string]models.Track{"t1": {ID: "t1"}}
	features := map[string]TrackFeature{"t1": {TrackID: "t1"}}

	byStrategy := map[StrategyName][]StrategyResult{
		StrategyCollaborative: {{TrackID: "t1", Score: 0.5}},
		StrategyContent:       {{TrackID: "t1", Score: 0.5}},
		StrategyTemporal:      {{TrackID: "t1", Score: 0.5}},
	}
	recs := aggregate(cfg, byStrategy, tracks, nil, features)
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if recs[0].Confidence != ConfidenceHigh {
		t.Errorf("confidence = %q, want high with 3 supporting strategies", recs[0].Confidence)
	}
	if recs[0].Reason == "" {
		t.Error("multi-strategy rows must carry a justification")
	}
}

func TestAggregateTieBreakOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QualityFloor = 0

	tracks := map[string]models.Track{
		"b": {ID: "b", Popularity: 80},
		"a": {ID: "a", Popularity: 80},
		"c": {ID: "c", Popularity: 60},
	}
	features := map[string]TrackFeature{
		"a": {TrackID: "a"}, "b": {TrackID: "b"}, "c": {TrackID: "c"},
	}

	// Identical scores: popularity breaks c below a/b, then track ID
	// orders a before b.
	byStrategy := map[StrategyName][]StrategyResult{
		StrategyCollaborative: {
			{TrackID: "b", Score: 0.9},
			{TrackID: "a", Score: 0.9},
			{TrackID: "c", Score: 0.9},
		},
	}
	recs := aggregate(cfg, byStrategy, tracks, nil, features)
	got := []string{recs[0].TrackID, recs[1].TrackID, recs[2].TrackID}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank order = %v, want %v", got, want)
		}
	}
	for i, r := range recs {
		if r.Rank != i+1 {
			t.Errorf("rank field = %d at position %d", r.Rank, i)
		}
	}
}

func TestPopularityFallbackExactCount(t *testing.T) {
	tracks := make(map[string]models.Track)
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("t%02d", i)
		tracks[id] = models.Track{ID: id, Name: id, Popularity: i * 2}
	}

	recs := popularityFallback(tracks, nil, 30)
	if len(recs) != 30 {
		t.Fatalf("got %d fallback rows, want exactly 30", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Popularity > recs[i-1].Popularity {
			t.Fatal("fallback must be ordered by popularity descending")
		}
	}
	for _, r := range recs {
		if r.Confidence != ConfidenceSingle {
			t.Errorf("fallback confidence = %q, want single", r.Confidence)
		}
	}
}
