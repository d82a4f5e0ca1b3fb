// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package models

import (
	"strings"
	"time"
)

// DefaultProfileID identifies the single-listener profile used by the
// reference deployment. Every derived entity is keyed by profile ID so a
// multi-tenant deployment only needs to pass a different value.
const DefaultProfileID = "default"

// ListeningEvent is one play from the event log. Events are append-only
// and immutable; identity is (TrackID, PlayedAt). The core never mutates
// or deletes them.
type ListeningEvent struct {
	// ProfileID is the listener profile this event belongs to.
	ProfileID string `json:"profile_id"`

	// TrackID is the catalog identifier of the played track.
	TrackID string `json:"track_id"`

	// ArtistID is the primary artist of the played track.
	ArtistID string `json:"artist_id"`

	// Genre is the primary genre at play time. May be empty when the
	// catalog had no genre for the track; such events are excluded from
	// genre-dependent stages but still count toward play totals.
	Genre string `json:"genre"`

	// PlayedAt is when playback started.
	PlayedAt time.Time `json:"played_at"`

	// Source records where the event came from (scrobbler, import, ...).
	Source string `json:"source,omitempty"`
}

// HasGenre reports whether the event carries a usable genre label.
func (e ListeningEvent) HasGenre() bool {
	return strings.TrimSpace(e.Genre) != ""
}

// Track is a catalog entry. Catalog rows are effectively immutable within
// a scoring run.
type Track struct {
	// ID is the unique catalog identifier.
	ID string `json:"id"`

	// Name is the track title.
	Name string `json:"name"`

	// ArtistID is the primary artist.
	ArtistID string `json:"artist_id"`

	// Genre is the primary genre. Empty when unknown.
	Genre string `json:"genre"`

	// Popularity is the catalog popularity score (0-100).
	Popularity int `json:"popularity"`

	// DurationMS is the track length in milliseconds.
	DurationMS int `json:"duration_ms"`

	// ReleaseYear is the parsed album release year. Zero when the
	// release date was missing or unparseable; consumers must treat
	// zero as "unknown era" rather than an error.
	ReleaseYear int `json:"release_year"`

	// AlbumID is the containing album, when known.
	AlbumID string `json:"album_id,omitempty"`
}

// Artist is a catalog entry for an artist.
type Artist struct {
	// ID is the unique catalog identifier.
	ID string `json:"id"`

	// Name is the artist name.
	Name string `json:"name"`

	// Popularity is the catalog popularity score (0-100).
	Popularity int `json:"popularity"`

	// Followers is the follower count, when known.
	Followers int `json:"followers,omitempty"`

	// Genres is the set of genres attributed to the artist.
	Genres []string `json:"genres"`
}

// GenreSet returns the artist's genres as a lowercase set.
func (a Artist) GenreSet() map[string]struct{} {
	set := make(map[string]struct{}, len(a.Genres))
	for _, g := range a.Genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			set[g] = struct{}{}
		}
	}
	return set
}

// NormalizeGenre canonicalizes a genre label for map keys and joins.
// An empty result means the genre is unusable.
func NormalizeGenre(genre string) string {
	return strings.ToLower(strings.TrimSpace(genre))
}
