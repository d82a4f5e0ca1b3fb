// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package database

import (
	"context"
	"fmt"

	"github.com/melodex-app/melodex/internal/models"
)

// InsertEvents appends listening events. Duplicates on the
// (profile, track, played_at) identity are ignored, so replayed feeds
// are safe.
func (db *DB) InsertEvents(ctx context.Context, events []models.ListeningEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning event insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO listening_events (profile_id, track_id, artist_id, genre, played_at, source)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing event insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		profileID := ev.ProfileID
		if profileID == "" {
			profileID = models.DefaultProfileID
		}
		if _, err := stmt.ExecContext(ctx, profileID, ev.TrackID, ev.ArtistID, ev.Genre, ev.PlayedAt, ev.Source); err != nil {
			return fmt.Errorf("inserting event %s@%s: %w", ev.TrackID, ev.PlayedAt, err)
		}
	}
	return tx.Commit()
}

// UpsertTracks replaces catalog rows by track ID.
func (db *DB) UpsertTracks(ctx context.Context, tracks []models.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning track upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO tracks (track_id, name, artist_id, genre, popularity, duration_ms, release_year, album_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing track upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		if _, err := stmt.ExecContext(ctx, t.ID, t.Name, t.ArtistID, t.Genre, t.Popularity, t.DurationMS, t.ReleaseYear, t.AlbumID); err != nil {
			return fmt.Errorf("upserting track %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// UpsertArtists replaces catalog rows by artist ID.
func (db *DB) UpsertArtists(ctx context.Context, artists []models.Artist) error {
	if len(artists) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning artist upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO artists (artist_id, name, popularity, followers, genres)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing artist upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range artists {
		if _, err := stmt.ExecContext(ctx, a.ID, a.Name, a.Popularity, a.Followers, joinGenres(a.Genres)); err != nil {
			return fmt.Errorf("upserting artist %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// AddOverride pins a track for a profile at the given priority.
func (db *DB) AddOverride(ctx context.Context, profileID, trackID string, priority int) error {
	if profileID == "" {
		profileID = models.DefaultProfileID
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO recommendation_overrides (profile_id, track_id, priority)
		VALUES (?, ?, ?)`,
		profileID, trackID, priority)
	if err != nil {
		return fmt.Errorf("adding override %s: %w", trackID, err)
	}
	return nil
}

// RemoveOverride unpins a track.
func (db *DB) RemoveOverride(ctx context.Context, profileID, trackID string) error {
	if profileID == "" {
		profileID = models.DefaultProfileID
	}
	_, err := db.conn.ExecContext(ctx, `
		DELETE FROM recommendation_overrides WHERE profile_id = ? AND track_id = ?`,
		profileID, trackID)
	if err != nil {
		return fmt.Errorf("removing override %s: %w", trackID, err)
	}
	return nil
}
