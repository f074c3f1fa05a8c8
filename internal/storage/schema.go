package storage

import (
	"context"
	"fmt"
)

// Schema DDL shared by both backends. The partial unique index is the
// license constraint: it ignores NULL and the '-' placeholder the source
// uses for unknown license numbers.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS athletes (
		ffa_id TEXT PRIMARY KEY,
		license_id TEXT,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		url TEXT,
		birth_year INTEGER,
		sex TEXT,
		nationality TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_athletes_license
		ON athletes (license_id)
		WHERE license_id IS NOT NULL AND license_id <> '-'`,
	`CREATE TABLE IF NOT EXISTS clubs (
		ffa_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		first_year INTEGER NOT NULL,
		last_year INTEGER NOT NULL
	)`,
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
