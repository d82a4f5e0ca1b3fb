// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/melodex-app/melodex/internal/models"
	"github.com/melodex-app/melodex/internal/recommend"
)

// maxListSize bounds the n query parameter.
const maxListSize = 200

// recommendationsResponse wraps the ranked list with staleness info so
// callers know how old the data is.
type recommendationsResponse struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
	GeneratedAt     time.Time                  `json:"generated_at"`
	Count           int                        `json:"count"`
}

type strategyResponse struct {
	Strategy    recommend.StrategyName     `json:"strategy"`
	Results     []recommend.StrategyResult `json:"results"`
	GeneratedAt time.Time                  `json:"generated_at"`
}

type similarResponse struct {
	TrackID string                   `json:"track_id"`
	Similar []recommend.SimilarTrack `json:"similar"`
}

type relatedResponse struct {
	ArtistID string                    `json:"artist_id"`
	Related  []recommend.RelatedArtist `json:"related"`
}

// profileParam resolves the optional profile query parameter.
func profileParam(r *http.Request) string {
	if p := r.URL.Query().Get("profile"); p != "" {
		return p
	}
	return models.DefaultProfileID
}

// sizeParam parses the optional n parameter; 0 means engine default.
func sizeParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListSize {
		return 0, false
	}
	return n, true
}

// temporalParam parses the optional hour/weekend context parameters.
func temporalParam(r *http.Request) (*recommend.TemporalContext, bool) {
	rawHour := r.URL.Query().Get("hour")
	rawWeekend := r.URL.Query().Get("weekend")
	if rawHour == "" && rawWeekend == "" {
		return nil, true
	}

	tc := &recommend.TemporalContext{}
	if rawHour != "" {
		hour, err := strconv.Atoi(rawHour)
		if err != nil || hour < 0 || hour > 23 {
			return nil, false
		}
		tc.Hour = hour
	}
	if rawWeekend != "" {
		weekend, err := strconv.ParseBool(rawWeekend)
		if err != nil {
			return nil, false
		}
		tc.Weekend = weekend
	}
	return tc, true
}

func (h *Handler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	n, ok := sizeParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "n must be an integer in [1, 200]")
		return
	}
	tc, ok := temporalParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "hour must be in [0, 23] and weekend a boolean")
		return
	}

	recs, generatedAt, err := h.engine.Recommendations(profileParam(r), n, tc)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recommendationsResponse{
		Recommendations: recs,
		GeneratedAt:     generatedAt,
		Count:           len(recs),
	})
}

func (h *Handler) getRecommendationsByStrategy(w http.ResponseWriter, r *http.Request) {
	n, ok := sizeParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "n must be an integer in [1, 200]")
		return
	}
	strategy := recommend.StrategyName(chi.URLParam(r, "strategy"))

	results, generatedAt, err := h.engine.RecommendationsByStrategy(profileParam(r), strategy, n)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, strategyResponse{
		Strategy:    strategy,
		Results:     results,
		GeneratedAt: generatedAt,
	})
}

func (h *Handler) getSimilarTracks(w http.ResponseWriter, r *http.Request) {
	n, ok := sizeParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "n must be an integer in [1, 200]")
		return
	}
	trackID := chi.URLParam(r, "trackID")

	similar, err := h.engine.SimilarTracks(profileParam(r), trackID, n)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, similarResponse{TrackID: trackID, Similar: similar})
}

func (h *Handler) getRelatedArtists(w http.ResponseWriter, r *http.Request) {
	n, ok := sizeParam(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "n must be an integer in [1, 200]")
		return
	}
	artistID := chi.URLParam(r, "artistID")

	related, err := h.engine.RelatedArtists(profileParam(r), artistID, n)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, relatedResponse{ArtistID: artistID, Related: related})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.engine.Taste(profileParam(r))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) postRun(w http.ResponseWriter, r *http.Request) {
	profileID := profileParam(r)
	if err := h.engine.Run(r.Context(), profileID); err != nil {
		h.writeEngineError(w, err)
		return
	}
	generatedAt, _ := h.engine.LastRun(profileID)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "completed",
		"generated_at": generatedAt,
	})
}

func (h *Handler) getLive(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getReady reports ready once storage answers and a snapshot exists for
// the default profile.
func (h *Handler) getReady(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable", "reason": "database unreachable",
			})
			return
		}
	}
	generatedAt, ok := h.engine.LastRun(models.DefaultProfileID)
	if !ok {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable", "reason": "no recommendation snapshot yet",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"generated_at": generatedAt,
	})
}
