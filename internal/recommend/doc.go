// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

// Package recommend implements the Melodex scoring pipeline.
//
// The pipeline consumes the listening event log and the track/artist
// catalog, derives intermediate models (track features, the genre
// preference profile, genre and artist similarity matrices, temporal
// patterns), runs the registered scoring strategies, and aggregates
// their outputs into a single ranked recommendation list.
//
// The Engine owns the pipeline. A run is an all-or-nothing batch: query
// methods serve an immutable Snapshot that is swapped atomically when a
// run completes, so readers never observe partial results. Strategies
// live in the strategies subpackage and plug in through the Strategy
// interface.
package recommend
