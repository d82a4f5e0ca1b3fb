// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

// Package models defines the catalog and event-log entities shared across
// Melodex components.
//
// The ingestion pipeline (an external collaborator) writes ListeningEvent,
// Track and Artist records into storage; the recommendation core only ever
// reads them. All types here are plain data with no behavior beyond small
// derivation helpers, so they can cross package boundaries freely without
// pulling in storage or scoring dependencies.
package models
