// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/melodex-app/melodex/internal/models"
)

// Sentinel errors returned by the engine. Callers branch on these to
// pick HTTP status codes.
var (
	// ErrRunInProgress is returned when a run is requested while another
	// run is already executing.
	ErrRunInProgress = errors.New("recommendation run already in progress")

	// ErrInsufficientData is returned when the event window is empty and
	// no popularity fallback is possible either.
	ErrInsufficientData = errors.New("insufficient listening data")

	// ErrNoCatalog is returned when the track catalog is empty.
	ErrNoCatalog = errors.New("track catalog is empty")

	// ErrNoSnapshot is returned by query methods before the first
	// successful run.
	ErrNoSnapshot = errors.New("no recommendation snapshot available yet")

	// ErrUnknownStrategy is returned for queries naming an unregistered
	// strategy.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrUnknownTrack is returned for similarity queries on a track that
	// is not in the feature table.
	ErrUnknownTrack = errors.New("unknown track")
)

// StrategyName identifies a scoring strategy.
type StrategyName string

// The built-in strategies.
const (
	StrategyCollaborative StrategyName = "collaborative"
	StrategyContent       StrategyName = "content"
	StrategyTemporal      StrategyName = "temporal"
	StrategyDiscovery     StrategyName = "discovery"
	StrategyPopularity    StrategyName = "popularity"
)

// Confidence labels how much cross-strategy agreement backs a
// recommendation.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceSingle Confidence = "single-strategy"
)

// PreferenceStrength buckets a genre preference score.
type PreferenceStrength string

const (
	StrengthHigh    PreferenceStrength = "high"
	StrengthMedium  PreferenceStrength = "medium"
	StrengthLow     PreferenceStrength = "low"
	StrengthMinimal PreferenceStrength = "minimal"
)

// TrackFeature is the derived feature vector for one catalog track.
// Recomputed each run; never authoritative across runs.
type TrackFeature struct {
	TrackID           string  `json:"track_id"`
	ArtistID          string  `json:"artist_id"`
	Genre             string  `json:"genre"`
	Popularity        int     `json:"popularity"`
	PopularityNorm    float64 `json:"popularity_norm"`
	PopularityTier    int     `json:"popularity_tier"`
	DurationBucket    string  `json:"duration_bucket"`
	EraBucket         string  `json:"era_bucket"`
	PlayCountInWindow int     `json:"play_count_in_window"`
	Freshness         float64 `json:"freshness"`
	HiddenGemScore    float64 `json:"hidden_gem_score"`

	// GenrePopDelta and ArtistPopDelta are the track's popularity minus
	// its genre's and artist's mean popularity.
	GenrePopDelta  float64 `json:"genre_pop_delta"`
	ArtistPopDelta float64 `json:"artist_pop_delta"`
}

// GenrePreference is one row of the preference profile.
type GenrePreference struct {
	Genre          string             `json:"genre"`
	PlayCount      int                `json:"play_count"`
	WeightedPlays  float64            `json:"weighted_plays"`
	UniqueArtists  int                `json:"unique_artists"`
	UniqueTracks   int                `json:"unique_tracks"`
	Score          float64            `json:"score"`
	Strength       PreferenceStrength `json:"strength"`
	IsCurrent      bool               `json:"is_current"`
	IsVeryRecent   bool               `json:"is_very_recent"`
	LastPlayedAt   time.Time          `json:"last_played_at"`
	FirstPlayedAt  time.Time          `json:"first_played_at"`
	SharePercent   float64            `json:"share_percent"`
	PeakListenHour int                `json:"peak_listen_hour"`
}

// GenreSimilarity is one undirected genre pair with its combined
// similarity. Stored once per pair with GenreA < GenreB.
type GenreSimilarity struct {
	GenreA         string  `json:"genre_a"`
	GenreB         string  `json:"genre_b"`
	SharedSessions int     `json:"shared_sessions"`
	Jaccard        float64 `json:"jaccard"`
	Overlap        float64 `json:"overlap"`
	Combined       float64 `json:"combined"`
}

// ArtistSimilarity is one undirected artist pair, kept when the
// combined score clears the engine threshold.
type ArtistSimilarity struct {
	ArtistA      string  `json:"artist_a"`
	ArtistB      string  `json:"artist_b"`
	GenreJaccard float64 `json:"genre_jaccard"`
	PopSimilar   float64 `json:"pop_similar"`
	Combined     float64 `json:"combined"`
}

// TemporalPattern is the listening probability of a genre in an
// (hour, weekend) slot.
type TemporalPattern struct {
	Genre       string  `json:"genre"`
	Hour        int     `json:"hour"`
	IsWeekend   bool    `json:"is_weekend"`
	PlayCount   int     `json:"play_count"`
	Probability float64 `json:"probability"`
	Strength    string  `json:"strength"`
}

// Temporal pattern strength labels. Patterns below the weak cutoff are
// filtered out during the build.
const (
	PatternStrong   = "strong"
	PatternModerate = "moderate"
)

// StrategyResult is one scored candidate emitted by a single strategy.
type StrategyResult struct {
	TrackID  string       `json:"track_id"`
	ArtistID string       `json:"artist_id"`
	Genre    string       `json:"genre"`
	Score    float64      `json:"score"`
	Strategy StrategyName `json:"strategy"`
	Reason   string       `json:"reason"`
}

// Recommendation is one row of the final ranked list.
type Recommendation struct {
	Rank         int            `json:"rank"`
	TrackID      string         `json:"track_id"`
	TrackName    string         `json:"track_name"`
	ArtistID     string         `json:"artist_id"`
	ArtistName   string         `json:"artist_name"`
	Genre        string         `json:"genre"`
	FinalScore   float64        `json:"final_score"`
	Confidence   Confidence     `json:"confidence"`
	SupportCount int            `json:"support_count"`
	Strategies   []StrategyName `json:"strategies"`
	Popularity   int            `json:"popularity"`
	Reason       string         `json:"reason"`
	Override     bool           `json:"override,omitempty"`
}

// SimilarTrack is one row of a track similarity query.
type SimilarTrack struct {
	TrackID    string  `json:"track_id"`
	TrackName  string  `json:"track_name"`
	ArtistID   string  `json:"artist_id"`
	Genre      string  `json:"genre"`
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
}

// RelatedArtist is one row of an artist similarity query, oriented
// from the seed artist.
type RelatedArtist struct {
	ArtistID     string  `json:"artist_id"`
	ArtistName   string  `json:"artist_name"`
	GenreJaccard float64 `json:"genre_jaccard"`
	PopSimilar   float64 `json:"pop_similar"`
	Combined     float64 `json:"combined"`
}

// TemporalContext carries the caller's current time slot for
// query-time temporal boosting.
type TemporalContext struct {
	Hour    int
	Weekend bool
}

// TasteProfile is the queryable shape of a profile's derived models.
type TasteProfile struct {
	ProfileID     string            `json:"profile_id"`
	WindowStart   time.Time         `json:"window_start"`
	GeneratedAt   time.Time         `json:"generated_at"`
	EventCount    int               `json:"event_count"`
	Preferences   []GenrePreference `json:"preferences"`
	Patterns      []TemporalPattern `json:"patterns"`
	TopGenres     []string          `json:"top_genres"`
	UniqueArtists int               `json:"unique_artists"`
	UniqueTracks  int               `json:"unique_tracks"`
}

// Inputs bundles everything a strategy sees for one run. All fields are
// read-only to strategies.
type Inputs struct {
	ProfileID string

	// Now anchors recency decay and temporal context for the run.
	Now time.Time

	Events  []models.ListeningEvent
	Tracks  map[string]models.Track
	Artists map[string]models.Artist

	// Features indexes the derived feature table by track ID.
	Features map[string]TrackFeature

	// PlayCounts maps track ID to its play count inside the window.
	PlayCounts map[string]int

	Preferences []GenrePreference
	GenreSims   []GenreSimilarity
	ArtistSims  []ArtistSimilarity
	Patterns    []TemporalPattern
}

// Preference returns the preference row for a genre, if any.
func (in *Inputs) Preference(genre string) (GenrePreference, bool) {
	norm := models.NormalizeGenre(genre)
	for _, p := range in.Preferences {
		if p.Genre == norm {
			return p, true
		}
	}
	return GenrePreference{}, false
}

// GenreSimilarityFor returns the combined similarity between two genres
// regardless of argument order. Identical genres score 1.0.
func (in *Inputs) GenreSimilarityFor(a, b string) float64 {
	a, b = models.NormalizeGenre(a), models.NormalizeGenre(b)
	if a == b {
		return 1.0
	}
	if a > b {
		a, b = b, a
	}
	for _, s := range in.GenreSims {
		if s.GenreA == a && s.GenreB == b {
			return s.Combined
		}
	}
	return 0
}

// Snapshot is the immutable output of one pipeline run. The engine
// swaps the whole snapshot atomically; readers see either the previous
// complete run or this one, never a mix.
type Snapshot struct {
	ProfileID   string
	GeneratedAt time.Time
	WindowStart time.Time
	EventCount  int
	ColdStart   bool

	Recommendations []Recommendation
	ByStrategy      map[StrategyName][]StrategyResult
	Profile         TasteProfile
	Features        map[string]TrackFeature
	ArtistSims      []ArtistSimilarity
	GenreSims       []GenreSimilarity

	// TrackNames and ArtistNames resolve IDs for query responses.
	TrackNames  map[string]string
	ArtistNames map[string]string
}

// DataProvider supplies the engine's raw inputs. The database package
// implements it; tests provide fixtures.
type DataProvider interface {
	// EventsInWindow returns the profile's listening events at or after
	// since, oldest first.
	EventsInWindow(ctx context.Context, profileID string, since time.Time) ([]models.ListeningEvent, error)

	// Tracks returns the full track catalog.
	Tracks(ctx context.Context) ([]models.Track, error)

	// Artists returns the full artist catalog.
	Artists(ctx context.Context) ([]models.Artist, error)

	// Overrides returns manually pinned track IDs for the profile, in
	// priority order.
	Overrides(ctx context.Context, profileID string) ([]string, error)
}

// Strategy scores candidate tracks for one run. Implementations must be
// safe for concurrent use and must not mutate Inputs.
type Strategy interface {
	// Name reports the strategy's stable identifier.
	Name() StrategyName

	// Score returns scored candidates with scores in [0, 1]. Returning an
	// empty slice is a valid outcome, not an error.
	Score(ctx context.Context, in *Inputs) ([]StrategyResult, error)
}
