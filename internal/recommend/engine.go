// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/melodex-app/melodex/internal/logging"
	"github.com/melodex-app/melodex/internal/metrics"
	"github.com/melodex-app/melodex/internal/models"
)

// Engine owns the recommendation pipeline: it pulls raw inputs from the
// DataProvider, runs the registered strategies, aggregates, and serves
// the resulting Snapshot. Safe for concurrent use; at most one run
// executes at a time.
type Engine struct {
	cfg      Config
	provider DataProvider
	logger   zerolog.Logger

	// now is injectable for deterministic runs in tests.
	now func() time.Time

	// runMu serializes runs. TryLock turns overlap into ErrRunInProgress
	// instead of queueing.
	runMu sync.Mutex

	mu         sync.RWMutex
	strategies map[StrategyName]Strategy
	snapshots  map[string]*Snapshot
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger overrides the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine validates cfg and builds an engine with no strategies
// registered yet.
func NewEngine(cfg Config, provider DataProvider, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}
	e := &Engine{
		cfg:        cfg,
		provider:   provider,
		logger:     logging.With().Str("component", "engine").Logger(),
		now:        time.Now,
		strategies: make(map[StrategyName]Strategy),
		snapshots:  make(map[string]*Snapshot),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Register adds a strategy. Registering a duplicate name is an error.
func (e *Engine) Register(s Strategy) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.strategies[s.Name()]; ok {
		return fmt.Errorf("strategy %q already registered", s.Name())
	}
	e.strategies[s.Name()] = s
	return nil
}

// Run executes one full pipeline pass for the profile and atomically
// publishes the resulting snapshot. A second concurrent call returns
// ErrRunInProgress. Cancellation aborts without publishing.
func (e *Engine) Run(ctx context.Context, profileID string) error {
	if !e.runMu.TryLock() {
		metrics.PipelineRuns.WithLabelValues("conflict").Inc()
		return ErrRunInProgress
	}
	defer e.runMu.Unlock()

	start := time.Now()
	err := e.run(ctx, profileID)
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		return err
	}
	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	return nil
}

func (e *Engine) run(ctx context.Context, profileID string) error {
	if profileID == "" {
		profileID = models.DefaultProfileID
	}
	wallStart := time.Now()
	now := e.now()
	windowStart := now.AddDate(0, 0, -e.cfg.WindowDays)

	logger := e.logger.With().Str("profile_id", profileID).Logger()
	logger.Info().Time("window_start", windowStart).Msg("starting recommendation run")

	events, err := e.provider.EventsInWindow(ctx, profileID, windowStart)
	if err != nil {
		return fmt.Errorf("loading events: %w", err)
	}
	trackList, err := e.provider.Tracks(ctx)
	if err != nil {
		return fmt.Errorf("loading tracks: %w", err)
	}
	if len(trackList) == 0 {
		return ErrNoCatalog
	}
	artistList, err := e.provider.Artists(ctx)
	if err != nil {
		return fmt.Errorf("loading artists: %w", err)
	}
	overrides, err := e.provider.Overrides(ctx, profileID)
	if err != nil {
		return fmt.Errorf("loading overrides: %w", err)
	}

	tracks := make(map[string]models.Track, len(trackList))
	for _, t := range trackList {
		tracks[t.ID] = t
	}
	artists := make(map[string]models.Artist, len(artistList))
	for _, a := range artistList {
		artists[a.ID] = a
	}
	playCounts := make(map[string]int)
	for _, ev := range events {
		playCounts[ev.TrackID]++
	}

	in := &Inputs{
		ProfileID:  profileID,
		Now:        now,
		Events:     events,
		Tracks:     tracks,
		Artists:    artists,
		PlayCounts: playCounts,
	}

	stages := []struct {
		name  string
		build func()
	}{
		{"features", func() { in.Features = BuildFeatures(e.cfg, now, tracks, artists, events) }},
		{"profile", func() { in.Preferences = BuildProfile(e.cfg, now, events) }},
		{"genre_similarity", func() { in.GenreSims = BuildGenreSimilarities(e.cfg, events) }},
		{"artist_similarity", func() { in.ArtistSims = BuildArtistSimilarities(e.cfg, artists) }},
		{"temporal_patterns", func() { in.Patterns = BuildTemporalPatterns(e.cfg, events) }},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		began := time.Now()
		st.build()
		metrics.StageDuration.WithLabelValues(st.name).Observe(time.Since(began).Seconds())
	}

	byStrategy := e.runStrategies(ctx, logger, in)
	if err := ctx.Err(); err != nil {
		return err
	}

	recs := aggregate(e.cfg, byStrategy, tracks, artists, in.Features)
	coldStart := len(recs) == 0
	if coldStart {
		logger.Info().Msg("no weighted strategy output, falling back to popularity ranking")
		metrics.ColdStartRuns.Inc()
		recs = popularityFallback(tracks, artists, e.cfg.RecommendationCount)
		if len(recs) == 0 {
			return ErrInsufficientData
		}
	}

	recs = applyOverrides(recs, overrides, tracks, artists)

	snap := &Snapshot{
		ProfileID:       profileID,
		GeneratedAt:     now,
		WindowStart:     windowStart,
		EventCount:      len(events),
		ColdStart:       coldStart,
		Recommendations: recs,
		ByStrategy:      byStrategy,
		Profile:         buildTasteProfile(profileID, windowStart, now, in),
		Features:        in.Features,
		ArtistSims:      in.ArtistSims,
		GenreSims:       in.GenreSims,
		TrackNames:      make(map[string]string, len(tracks)),
		ArtistNames:     make(map[string]string, len(artists)),
	}
	for id, t := range tracks {
		snap.TrackNames[id] = t.Name
	}
	for id, a := range artists {
		snap.ArtistNames[id] = a.Name
	}

	e.mu.Lock()
	e.snapshots[profileID] = snap
	e.mu.Unlock()

	metrics.Recommendations.WithLabelValues(profileID).Set(float64(len(recs)))
	metrics.SnapshotTimestamp.WithLabelValues(profileID).Set(float64(snap.GeneratedAt.Unix()))
	logger.Info().
		Int("events", len(events)).
		Int("recommendations", len(recs)).
		Bool("cold_start", coldStart).
		Dur("took", time.Since(wallStart)).
		Msg("recommendation run complete")
	return nil
}

// runStrategies scores all registered strategies in name order. A
// failing strategy logs and contributes zero rows; it never fails the
// run.
func (e *Engine) runStrategies(ctx context.Context, logger zerolog.Logger, in *Inputs) map[StrategyName][]StrategyResult {
	e.mu.RLock()
	names := make([]StrategyName, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	strategies := make(map[StrategyName]Strategy, len(e.strategies))
	for name, s := range e.strategies {
		strategies[name] = s
	}
	e.mu.RUnlock()

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	out := make(map[StrategyName][]StrategyResult, len(names))
	for _, name := range names {
		began := time.Now()
		results, err := strategies[name].Score(ctx, in)
		metrics.StageDuration.WithLabelValues("strategy_" + string(name)).Observe(time.Since(began).Seconds())
		if err != nil {
			logger.Warn().Err(err).Str("strategy", string(name)).Msg("strategy failed, contributing zero rows")
			metrics.StrategyResults.WithLabelValues(string(name)).Set(0)
			continue
		}
		if len(results) > 0 {
			out[name] = results
		}
		metrics.StrategyResults.WithLabelValues(string(name)).Set(float64(len(results)))
	}
	return out
}

// applyOverrides pins manually chosen tracks to the top of the list in
// their stored priority order, ahead of every scored row.
func applyOverrides(recs []Recommendation, overrides []string, tracks map[string]models.Track, artists map[string]models.Artist) []Recommendation {
	if len(overrides) == 0 {
		return recs
	}

	pinned := make([]Recommendation, 0, len(overrides))
	seen := make(map[string]struct{}, len(overrides))
	for _, id := range overrides {
		t, ok := tracks[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		pinned = append(pinned, Recommendation{
			TrackID:      id,
			TrackName:    t.Name,
			ArtistID:     t.ArtistID,
			ArtistName:   artists[t.ArtistID].Name,
			Genre:        models.NormalizeGenre(t.Genre),
			FinalScore:   1.0,
			Confidence:   ConfidenceHigh,
			SupportCount: 1,
			Strategies:   nil,
			Popularity:   t.Popularity,
			Reason:       "pinned by manual override",
			Override:     true,
		})
	}
	if len(pinned) == 0 {
		return recs
	}

	out := pinned
	for _, r := range recs {
		if _, ok := seen[r.TrackID]; ok {
			continue
		}
		out = append(out, r)
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// buildTasteProfile assembles the introspection view of a run.
func buildTasteProfile(profileID string, windowStart, now time.Time, in *Inputs) TasteProfile {
	topGenres := make([]string, 0, len(in.Preferences))
	for _, p := range in.Preferences {
		topGenres = append(topGenres, p.Genre)
	}

	artists := make(map[string]struct{})
	tracks := make(map[string]struct{})
	for _, ev := range in.Events {
		artists[ev.ArtistID] = struct{}{}
		tracks[ev.TrackID] = struct{}{}
	}

	return TasteProfile{
		ProfileID:     profileID,
		WindowStart:   windowStart,
		GeneratedAt:   now,
		EventCount:    len(in.Events),
		Preferences:   in.Preferences,
		Patterns:      in.Patterns,
		TopGenres:     topGenres,
		UniqueArtists: len(artists),
		UniqueTracks:  len(tracks),
	}
}

// snapshot returns the published snapshot for a profile.
func (e *Engine) snapshot(profileID string) (*Snapshot, error) {
	if profileID == "" {
		profileID = models.DefaultProfileID
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	snap, ok := e.snapshots[profileID]
	if !ok {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// LastRun reports the generation time of the served snapshot, so
// callers can surface staleness.
func (e *Engine) LastRun(profileID string) (time.Time, bool) {
	snap, err := e.snapshot(profileID)
	if err != nil {
		return time.Time{}, false
	}
	return snap.GeneratedAt, true
}

// Recommendations returns the top n ranked recommendations. A non-nil
// TemporalContext re-orders by adding a small boost for genres with a
// strong pattern in the caller's current slot; the stored snapshot is
// never mutated.
func (e *Engine) Recommendations(profileID string, n int, tc *TemporalContext) ([]Recommendation, time.Time, error) {
	snap, err := e.snapshot(profileID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if n <= 0 {
		n = e.cfg.RecommendationCount
	}

	recs := make([]Recommendation, len(snap.Recommendations))
	copy(recs, snap.Recommendations)

	if tc != nil {
		boostTemporal(recs, snap.Profile.Patterns, *tc, e.cfg.TemporalTolerance)
	}

	if len(recs) > n {
		recs = recs[:n]
	}
	return recs, snap.GeneratedAt, nil
}

// queryBoostWeight scales the query-time temporal re-ranking. Small on
// purpose so it reorders near-ties without overriding the run ranking.
const queryBoostWeight = 0.05

// boostTemporal nudges scores by the genre's best pattern relevance in
// the caller's slot, then re-sorts. Pinned overrides stay on top.
func boostTemporal(recs []Recommendation, patterns []TemporalPattern, tc TemporalContext, tolerance time.Duration) {
	for i := range recs {
		if recs[i].Override || recs[i].Genre == "" {
			continue
		}
		best := 0.0
		for _, p := range patterns {
			if p.Genre != recs[i].Genre {
				continue
			}
			if rel := TemporalRelevance(p, tc.Hour, tc.Weekend, tolerance); rel > best {
				best = rel
			}
		}
		recs[i].FinalScore += queryBoostWeight * best
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Override != recs[j].Override {
			return recs[i].Override
		}
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
	for i := range recs {
		recs[i].Rank = i + 1
	}
}

// RecommendationsByStrategy returns one strategy's raw scored rows for
// diagnostics, top n by score.
func (e *Engine) RecommendationsByStrategy(profileID string, strategy StrategyName, n int) ([]StrategyResult, time.Time, error) {
	e.mu.RLock()
	_, registered := e.strategies[strategy]
	e.mu.RUnlock()
	if !registered {
		return nil, time.Time{}, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
	}

	snap, err := e.snapshot(profileID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if n <= 0 {
		n = e.cfg.RecommendationCount
	}

	rows := snap.ByStrategy[strategy]
	out := make([]StrategyResult, len(rows))
	copy(out, rows)
	if len(out) > n {
		out = out[:n]
	}
	return out, snap.GeneratedAt, nil
}

// SimilarTracks returns the n feature-space nearest tracks to a seed.
func (e *Engine) SimilarTracks(profileID, trackID string, n int) ([]SimilarTrack, error) {
	snap, err := e.snapshot(profileID)
	if err != nil {
		return nil, err
	}
	seed, ok := snap.Features[trackID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
	}
	if n <= 0 {
		n = e.cfg.RecommendationCount
	}

	genreSim := func(a, b string) float64 { return genreSimLookup(snap.GenreSims, a, b) }

	out := make([]SimilarTrack, 0, len(snap.Features))
	for id, f := range snap.Features {
		if id == trackID {
			continue
		}
		sim := FeatureSimilarity(seed, f, genreSim)
		out = append(out, SimilarTrack{
			TrackID:    id,
			TrackName:  snap.TrackNames[id],
			ArtistID:   f.ArtistID,
			Genre:      f.Genre,
			Similarity: sim,
			Reason:     similarityReason(seed, f),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].TrackID < out[j].TrackID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// similarityReason names the dominant shared trait of two tracks.
func similarityReason(a, b TrackFeature) string {
	switch {
	case a.Genre != "" && a.Genre == b.Genre && a.EraBucket == b.EraBucket:
		return fmt.Sprintf("same genre (%s) and era (%s)", a.Genre, a.EraBucket)
	case a.Genre != "" && a.Genre == b.Genre:
		return fmt.Sprintf("same genre (%s)", a.Genre)
	case a.ArtistID == b.ArtistID:
		return "same artist"
	case a.PopularityTier == b.PopularityTier:
		return "similar popularity"
	default:
		return "similar overall features"
	}
}

// RelatedArtists returns the artists most similar to a seed artist,
// oriented from the seed.
func (e *Engine) RelatedArtists(profileID, artistID string, n int) ([]RelatedArtist, error) {
	snap, err := e.snapshot(profileID)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = e.cfg.RecommendationCount
	}

	out := make([]RelatedArtist, 0, n)
	for _, s := range snap.ArtistSims {
		var other string
		switch artistID {
		case s.ArtistA:
			other = s.ArtistB
		case s.ArtistB:
			other = s.ArtistA
		default:
			continue
		}
		out = append(out, RelatedArtist{
			ArtistID:     other,
			ArtistName:   snap.ArtistNames[other],
			GenreJaccard: s.GenreJaccard,
			PopSimilar:   s.PopSimilar,
			Combined:     s.Combined,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Combined != out[j].Combined {
			return out[i].Combined > out[j].Combined
		}
		return out[i].ArtistID < out[j].ArtistID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Taste returns the profile introspection view from the served
// snapshot.
func (e *Engine) Taste(profileID string) (TasteProfile, error) {
	snap, err := e.snapshot(profileID)
	if err != nil {
		return TasteProfile{}, err
	}
	return snap.Profile, nil
}
