// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/melodex-app/melodex/internal/models"
)

// genreListSeparator joins an artist's genres into one column.
const genreListSeparator = ","

// EventsInWindow implements recommend.DataProvider. Events come back
// oldest first.
func (db *DB) EventsInWindow(ctx context.Context, profileID string, since time.Time) ([]models.ListeningEvent, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT profile_id, track_id, artist_id, COALESCE(genre, ''), played_at, COALESCE(source, '')
		FROM listening_events
		WHERE profile_id = ? AND played_at >= ?
		ORDER BY played_at, track_id`,
		profileID, since)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []models.ListeningEvent
	for rows.Next() {
		var ev models.ListeningEvent
		if err := rows.Scan(&ev.ProfileID, &ev.TrackID, &ev.ArtistID, &ev.Genre, &ev.PlayedAt, &ev.Source); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Tracks implements recommend.DataProvider.
func (db *DB) Tracks(ctx context.Context) ([]models.Track, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT track_id, name, artist_id, COALESCE(genre, ''), popularity, duration_ms, release_year, COALESCE(album_id, '')
		FROM tracks
		ORDER BY track_id`)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.Name, &t.ArtistID, &t.Genre, &t.Popularity, &t.DurationMS, &t.ReleaseYear, &t.AlbumID); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// Artists implements recommend.DataProvider.
func (db *DB) Artists(ctx context.Context) ([]models.Artist, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT artist_id, name, popularity, followers, COALESCE(genres, '')
		FROM artists
		ORDER BY artist_id`)
	if err != nil {
		return nil, fmt.Errorf("querying artists: %w", err)
	}
	defer rows.Close()

	var artists []models.Artist
	for rows.Next() {
		var a models.Artist
		var genres string
		if err := rows.Scan(&a.ID, &a.Name, &a.Popularity, &a.Followers, &genres); err != nil {
			return nil, fmt.Errorf("scanning artist: %w", err)
		}
		a.Genres = splitGenres(genres)
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

// Overrides implements recommend.DataProvider. Highest priority first,
// ties broken by creation time then track ID.
func (db *DB) Overrides(ctx context.Context, profileID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT track_id
		FROM recommendation_overrides
		WHERE profile_id = ?
		ORDER BY priority DESC, created_at, track_id`,
		profileID)
	if err != nil {
		return nil, fmt.Errorf("querying overrides: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning override: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// EventCount returns the total event count for a profile, for health
// reporting.
func (db *DB) EventCount(ctx context.Context, profileID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM listening_events WHERE profile_id = ?`, profileID).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, genreListSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func joinGenres(genres []string) string {
	return strings.Join(genres, genreListSeparator)
}
