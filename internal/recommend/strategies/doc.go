// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

// Package strategies implements the built-in scoring strategies the
// engine blends: collaborative (taste transfer between related genres),
// content (feature similarity to seed tracks), temporal (time-of-day
// fit) and discovery (novelty and hidden gems), plus the popularity
// strategy used for cold start.
//
// Every strategy scores only unheard candidates, returns scores in
// [0, 1], and degrades to zero rows when its signal source is missing.
package strategies
