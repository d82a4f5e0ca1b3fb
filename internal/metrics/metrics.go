// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

// Package metrics registers the Prometheus instrumentation for the
// recommendation pipeline and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRuns counts pipeline runs by outcome (ok, error, conflict).
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "melodex",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Recommendation pipeline runs by outcome.",
	}, []string{"outcome"})

	// PipelineDuration observes end-to-end run duration.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "melodex",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "End-to-end recommendation run duration.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	// StageDuration observes per-stage build duration.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "melodex",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Per-stage duration of the recommendation pipeline.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"stage"})

	// StrategyResults counts candidate rows emitted per strategy per run.
	StrategyResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "melodex",
		Subsystem: "pipeline",
		Name:      "strategy_results",
		Help:      "Candidate rows emitted by each strategy in the last run.",
	}, []string{"strategy"})

	// Recommendations gauges the size of the last emitted ranked list.
	Recommendations = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "melodex",
		Subsystem: "pipeline",
		Name:      "recommendations",
		Help:      "Recommendations emitted by the last run, by profile.",
	}, []string{"profile"})

	// SnapshotTimestamp records when the served snapshot was generated.
	// Age is time() minus this value at query time.
	SnapshotTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "melodex",
		Subsystem: "pipeline",
		Name:      "snapshot_timestamp_seconds",
		Help:      "Unix time the served recommendation snapshot was generated, by profile.",
	}, []string{"profile"})

	// ColdStartRuns counts runs that fell back to popularity ranking.
	ColdStartRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "melodex",
		Subsystem: "pipeline",
		Name:      "cold_start_runs_total",
		Help:      "Runs that used the popularity fallback.",
	})

	// HTTPRequests counts API requests by route, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "melodex",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status class.",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes request handling latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "melodex",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)
