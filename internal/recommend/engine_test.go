// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/melodex-app/melodex/internal/metrics"
	"github.com/melodex-app/melodex/internal/models"
	"github.com/melodex-app/melodex/internal/recommend"
	"github.com/melodex-app/melodex/internal/recommend/strategies"
)

// fakeProvider serves fixtures through the DataProvider contract.
type fakeProvider struct {
	events    []models.ListeningEvent
	tracks    []models.Track
	artists   []models.Artist
	overrides []string
}

func (p *fakeProvider) EventsInWindow(_ context.Context, _ string, since time.Time) ([]models.ListeningEvent, error) {
	var out []models.ListeningEvent
	for _, ev := range p.events {
		if !ev.PlayedAt.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (p *fakeProvider) Tracks(context.Context) ([]models.Track, error) { return p.tracks, nil }
func (p *fakeProvider) Artists(context.Context) ([]models.Artist, error) { return p.artists, nil }

func (p *fakeProvider) Overrides(context.Context, string) ([]string, error) {
	return p.overrides, nil
}

// testNow anchors all engine tests. A Sunday evening.
var testNow = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

// listeningFixture builds a provider with a listening history rich
// enough to light up every strategy: rock, indie and jazz co-occur in
// sessions, and several unheard tracks sit in the catalog.
func listeningFixture() *fakeProvider {
	artists := []models.Artist{
		{ID: "a1", Name: "Sundial", Popularity: 70, Genres: []string{"rock", "indie"}},
		{ID: "a2", Name: "Gritstone", Popularity: 65, Genres: []string{"rock"}},
		{ID: "a3", Name: "Blue Hour", Popularity: 60, Genres: []string{"jazz"}},
		{ID: "a4", Name: "Voltline", Popularity: 50, Genres: []string{"electronic"}},
		{ID: "a5", Name: "Copper Veil", Popularity: 55, Genres: []string{"jazz", "soul"}},
	}
	tracks := []models.Track{
		// Heavily played.
		{ID: "p1", Name: "Worn Grooves", ArtistID: "a2", Genre: "rock", Popularity: 60, DurationMS: 210_000, ReleaseYear: 2021},
		{ID: "p3", Name: "Night Set", ArtistID: "a3", Genre: "jazz", Popularity: 55, DurationMS: 260_000, ReleaseYear: 2018},
		{ID: "p4", Name: "Paper Kites", ArtistID: "a1", Genre: "indie", Popularity: 58, DurationMS: 200_000, ReleaseYear: 2022},
		// Unheard candidates.
		{ID: "u1", Name: "Static Bloom", ArtistID: "a2", Genre: "rock", Popularity: 55, DurationMS: 215_000, ReleaseYear: 2021},
		{ID: "u2", Name: "Low Tide", ArtistID: "a1", Genre: "indie", Popularity: 50, DurationMS: 205_000, ReleaseYear: 2023},
		{ID: "u3", Name: "Blue Doors", ArtistID: "a5", Genre: "jazz", Popularity: 48, DurationMS: 255_000, ReleaseYear: 2019},
		{ID: "u4", Name: "Pulse Field", ArtistID: "a4", Genre: "electronic", Popularity: 52, DurationMS: 230_000, ReleaseYear: 2024},
		{ID: "u5", Name: "Slow Honey", ArtistID: "a5", Genre: "soul", Popularity: 47, DurationMS: 220_000, ReleaseYear: 2020},
	}

	var events []models.ListeningEvent
	play := func(trackID, artistID, genre string, at time.Time) {
		events = append(events, models.ListeningEvent{
			TrackID: trackID, ArtistID: artistID, Genre: genre, PlayedAt: at,
		})
	}
	// Ten daily sessions. Rock plays in all ten, indie joins the first
	// six, jazz the first four, so every pair clears the shared-session
	// floor.
	for i := 0; i < 10; i++ {
		at := testNow.Add(-time.Duration(i) * 24 * time.Hour)
		play("p1", "a2", "rock", at)
		if i < 6 {
			play("p4", "a1", "indie", at.Add(10*time.Minute))
		}
		if i < 4 {
			play("p3", "a3", "jazz", at.Add(20*time.Minute))
		}
	}
	return &fakeProvider{events: events, tracks: tracks, artists: artists}
}

// newTestEngine wires an engine with every strategy registered and a
// fixed clock.
func newTestEngine(t *testing.T, provider recommend.DataProvider) *recommend.Engine {
	t.Helper()
	cfg := recommend.DefaultConfig()
	eng, err := recommend.NewEngine(cfg, provider, recommend.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	for _, s := range []recommend.Strategy{
		strategies.NewCollaborative(cfg),
		strategies.NewContent(cfg),
		strategies.NewTemporal(cfg),
		strategies.NewDiscovery(cfg),
		strategies.NewPopularity(cfg),
	} {
		if err := eng.Register(s); err != nil {
			t.Fatalf("Register(%s): %v", s.Name(), err)
		}
	}
	return eng
}

func TestEngineRunAndExclusionInvariant(t *testing.T) {
	provider := listeningFixture()
	eng := newTestEngine(t, provider)

	if err := eng.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	recs, generatedAt, err := eng.Recommendations("", 0, nil)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("expected recommendations from a rich history")
	}
	if !generatedAt.Equal(testNow) {
		t.Errorf("generatedAt = %v, want %v", generatedAt, testNow)
	}

	// Heavily played tracks never reappear as recommendations.
	plays := make(map[string]int)
	for _, ev := range provider.events {
		plays[ev.TrackID]++
	}
	for _, r := range recs {
		if plays[r.TrackID] > recommend.DefaultConfig().ReplayFloor {
			t.Errorf("track %s has %d plays and must not be recommended", r.TrackID, plays[r.TrackID])
		}
		if r.FinalScore <= 0 {
			t.Errorf("track %s has non-positive score %v", r.TrackID, r.FinalScore)
		}
	}
}

func TestEngineRunPublishesSnapshotTimestamp(t *testing.T) {
	eng := newTestEngine(t, listeningFixture())
	if err := eng.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	gauge := metrics.SnapshotTimestamp.WithLabelValues(models.DefaultProfileID)
	if got := testutil.ToFloat64(gauge); got != float64(testNow.Unix()) {
		t.Errorf("snapshot timestamp gauge = %v, want %v", got, testNow.Unix())
	}
}

func TestEngineDeterminism(t *testing.T) {
	runOnce := func() []recommend.Recommendation {
		eng := newTestEngine(t, listeningFixture())
		if err := eng.Run(context.Background(), ""); err != nil {
			t.Fatalf("Run: %v", err)
		}
		recs, _, err := eng.Recommendations("", 0, nil)
		if err != nil {
			t.Fatalf("Recommendations: %v", err)
		}
		return recs
	}

	first := runOnce()
	second := runOnce()
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical inputs must produce identical ranked output")
	}
}

func TestEngineColdStartFallback(t *testing.T) {
	tracks := make([]models.Track, 0, 40)
	for i := 0; i < 40; i++ {
		tracks = append(tracks, models.Track{
			ID: fmt.Sprintf("t%02d", i), Name: fmt.Sprintf("Track %d", i), Popularity: 100 - i,
		})
	}
	eng := newTestEngine(t, &fakeProvider{tracks: tracks})

	if err := eng.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	recs, _, err := eng.Recommendations("", 30, nil)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if len(recs) != 30 {
		t.Fatalf("cold start returned %d rows, want exactly 30", len(recs))
	}
	for i, r := range recs {
		if r.Confidence != recommend.ConfidenceSingle {
			t.Errorf("row %d confidence = %q, want single", i, r.Confidence)
		}
		if i > 0 && recs[i].Popularity > recs[i-1].Popularity {
			t.Fatal("cold start must rank by popularity descending")
		}
	}
}

func TestEngineEmptyCatalogFatal(t *testing.T) {
	eng := newTestEngine(t, &fakeProvider{})
	err := eng.Run(context.Background(), "")
	if !errors.Is(err, recommend.ErrNoCatalog) {
		t.Fatalf("Run with empty catalog = %v, want ErrNoCatalog", err)
	}

	// No partial output was published.
	if _, _, err := eng.Recommendations("", 0, nil); !errors.Is(err, recommend.ErrNoSnapshot) {
		t.Errorf("query after failed run = %v, want ErrNoSnapshot", err)
	}
}

func TestEngineOverridesPinnedFirst(t *testing.T) {
	provider := listeningFixture()
	provider.overrides = []string{"u5", "missing-track"}
	eng := newTestEngine(t, provider)

	if err := eng.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}
	recs, _, err := eng.Recommendations("", 0, nil)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if recs[0].TrackID != "u5" || !recs[0].Override {
		t.Errorf("first row = %+v, want pinned u5", recs[0])
	}
	for _, r := range recs[1:] {
		if r.TrackID == "u5" {
			t.Error("pinned track must not appear twice")
		}
	}
}

func TestEngineQueriesBeforeFirstRun(t *testing.T) {
	eng := newTestEngine(t, listeningFixture())

	if _, _, err := eng.Recommendations("", 0, nil); !errors.Is(err, recommend.ErrNoSnapshot) {
		t.Errorf("Recommendations = %v, want ErrNoSnapshot", err)
	}
	if _, err := eng.Taste(""); !errors.Is(err, recommend.ErrNoSnapshot) {
		t.Errorf("Taste = %v, want ErrNoSnapshot", err)
	}
}

func TestEngineByStrategy(t *testing.T) {
	eng := newTestEngine(t, listeningFixture())
	if err := eng.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rows, _, err := eng.RecommendationsByStrategy("", recommend.StrategyCollaborative, 5)
	if err != nil {
		t.Fatalf("RecommendationsByStrategy: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected collaborative rows from a rich history")
	}
	for _, r := range rows {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("raw score %v out of [0,1]", r.Score)
		}
	}

	if _, _, err := eng.RecommendationsByStrategy("", "nope", 5); !errors.Is(err, recommend.ErrUnknownStrategy) {
		t.Errorf("unknown strategy error = %v, want ErrUnknownStrategy", err)
	}
}

func TestEngineSimilarTracks(t *testing.T) {
	eng := newTestEngine(t, listeningFixture())
	if err := eng.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	similar, err := eng.SimilarTracks("", "u1", 3)
	if err != nil {
		t.Fatalf("SimilarTracks: %v", err)
	}
	if len(similar) == 0 || len(similar) > 3 {
		t.Fatalf("got %d similar tracks, want 1..3", len(similar))
	}
	for _, s := range similar {
		if s.TrackID == "u1" {
			t.Error("seed track must not be its own neighbor")
		}
		if s.Similarity < 0 || s.Similarity > 1 {
			t.Errorf("similarity %v out of [0,1]", s.Similarity)
		}
		if s.Reason == "" {
			t.Error("similarity rows must carry a reason")
		}
	}

	if _, err := eng.SimilarTracks("", "no-such-track", 3); !errors.Is(err, recommend.ErrUnknownTrack) {
		t.Errorf("unknown track error = %v, want ErrUnknownTrack", err)
	}
}

func TestEngineRelatedArtists(t *testing.T) {
	eng := newTestEngine(t, listeningFixture())
	if err := eng.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	related, err := eng.RelatedArtists("", "a3", 10)
	if err != nil {
		t.Fatalf("RelatedArtists: %v", err)
	}
	if len(related) == 0 {
		t.Fatal("a3 shares jazz with a5, expected at least one related artist")
	}
	for i := 1; i < len(related); i++ {
		if related[i].Combined > related[i-1].Combined {
			t.Fatal("related artists must be ordered by combined score descending")
		}
	}
}

func TestEngineTasteProfile(t *testing.T) {
	eng := newTestEngine(t, listeningFixture())
	if err := eng.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	profile, err := eng.Taste("")
	if err != nil {
		t.Fatalf("Taste: %v", err)
	}
	if profile.ProfileID != models.DefaultProfileID {
		t.Errorf("profile id = %q, want %q", profile.ProfileID, models.DefaultProfileID)
	}
	if len(profile.TopGenres) == 0 || profile.TopGenres[0] != "rock" {
		t.Errorf("top genres = %v, want rock first", profile.TopGenres)
	}
	if profile.EventCount == 0 || profile.UniqueTracks == 0 {
		t.Errorf("profile counters empty: %+v", profile)
	}
}

func TestEngineTemporalContextKeepsOverridesFirst(t *testing.T) {
	provider := listeningFixture()
	provider.overrides = []string{"u5"}
	eng := newTestEngine(t, provider)
	if err := eng.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	recs, _, err := eng.Recommendations("", 0, &recommend.TemporalContext{Hour: 18, Weekend: true})
	if err != nil {
		t.Fatalf("Recommendations with context: %v", err)
	}
	if recs[0].TrackID != "u5" {
		t.Errorf("temporal boost must not displace pinned overrides, got %s first", recs[0].TrackID)
	}
}

func TestEngineDuplicateStrategyRegistration(t *testing.T) {
	cfg := recommend.DefaultConfig()
	eng, err := recommend.NewEngine(cfg, listeningFixture())
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Register(strategies.NewContent(cfg)); err != nil {
		t.Fatal(err)
	}
	if err := eng.Register(strategies.NewContent(cfg)); err == nil {
		t.Error("duplicate registration must fail")
	}
}
