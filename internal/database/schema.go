// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package database

import "context"

// schemaStatements create the Melodex tables. Events are append-only;
// catalog tables are upserted by the ingestion collaborator; overrides
// are the only user-editable table.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS listening_events (
		profile_id VARCHAR NOT NULL,
		track_id   VARCHAR NOT NULL,
		artist_id  VARCHAR NOT NULL,
		genre      VARCHAR,
		played_at  TIMESTAMP NOT NULL,
		source     VARCHAR,
		PRIMARY KEY (profile_id, track_id, played_at)
	)`,
	`CREATE TABLE IF NOT EXISTS tracks (
		track_id     VARCHAR PRIMARY KEY,
		name         VARCHAR NOT NULL,
		artist_id    VARCHAR NOT NULL,
		genre        VARCHAR,
		popularity   INTEGER NOT NULL DEFAULT 0,
		duration_ms  INTEGER NOT NULL DEFAULT 0,
		release_year INTEGER NOT NULL DEFAULT 0,
		album_id     VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS artists (
		artist_id  VARCHAR PRIMARY KEY,
		name       VARCHAR NOT NULL,
		popularity INTEGER NOT NULL DEFAULT 0,
		followers  BIGINT NOT NULL DEFAULT 0,
		genres     VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS recommendation_overrides (
		profile_id VARCHAR NOT NULL,
		track_id   VARCHAR NOT NULL,
		priority   INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
		PRIMARY KEY (profile_id, track_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_profile_time
		ON listening_events (profile_id, played_at)`,
}

// createSchema applies all schema statements.
func (db *DB) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
