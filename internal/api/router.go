// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

// Package api exposes the recommendation engine over HTTP. Routing is
// chi with per-client rate limiting and CORS; responses are JSON.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/melodex-app/melodex/internal/config"
	"github.com/melodex-app/melodex/internal/logging"
	"github.com/melodex-app/melodex/internal/metrics"
	"github.com/melodex-app/melodex/internal/recommend"
)

// Recommender is the engine surface the API serves. *recommend.Engine
// implements it; tests substitute fakes.
type Recommender interface {
	Run(ctx context.Context, profileID string) error
	Recommendations(profileID string, n int, tc *recommend.TemporalContext) ([]recommend.Recommendation, time.Time, error)
	RecommendationsByStrategy(profileID string, strategy recommend.StrategyName, n int) ([]recommend.StrategyResult, time.Time, error)
	SimilarTracks(profileID, trackID string, n int) ([]recommend.SimilarTrack, error)
	RelatedArtists(profileID, artistID string, n int) ([]recommend.RelatedArtist, error)
	Taste(profileID string) (recommend.TasteProfile, error)
	LastRun(profileID string) (time.Time, bool)
}

// Pinger is the storage health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler bundles the API dependencies.
type Handler struct {
	engine Recommender
	db     Pinger
	cfg    config.ServerConfig
	logger zerolog.Logger
}

// NewHandler builds the API handler.
func NewHandler(engine Recommender, db Pinger, cfg config.ServerConfig) *Handler {
	return &Handler{
		engine: engine,
		db:     db,
		cfg:    cfg,
		logger: logging.With().Str("component", "api").Logger(),
	}
}

// Router assembles the chi router with the full middleware stack.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	if h.cfg.Timeout > 0 {
		r.Use(middleware.Timeout(h.cfg.Timeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(h.cfg.RateLimitRequests, time.Minute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recommendations", h.getRecommendations)
		r.Get("/recommendations/{strategy}", h.getRecommendationsByStrategy)
		r.Get("/similar/{trackID}", h.getSimilarTracks)
		r.Get("/artists/{artistID}/related", h.getRelatedArtists)
		r.Get("/profile", h.getProfile)
		r.Post("/run", h.postRun)
	})

	r.Get("/health/live", h.getLive)
	r.Get("/health/ready", h.getReady)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requestIDHeader carries the per-request correlation ID.
const requestIDHeader = "X-Request-ID"

// requestID assigns a UUID to requests that arrive without one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// logRequests emits one structured line per request and feeds the HTTP
// metrics.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.HTTPRequests.WithLabelValues(route, r.Method, statusClass(ww.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", elapsed).
			Str("request_id", ww.Header().Get(requestIDHeader)).
			Msg("request")
	})
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
