package storage

import (
	"context"
	"fmt"

	"github.com/athledata/ffa-scraper/internal/scrape"
)

// The CASE expressions widen the activity window instead of LEAST/GREATEST
// so the same statement runs on both backends.
const upsertClubSQL = `
INSERT INTO clubs (ffa_id, name, normalized_name, first_year, last_year)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (ffa_id) DO UPDATE SET
	name = excluded.name,
	normalized_name = excluded.normalized_name,
	first_year = CASE WHEN excluded.first_year < clubs.first_year THEN excluded.first_year ELSE clubs.first_year END,
	last_year = CASE WHEN excluded.last_year > clubs.last_year THEN excluded.last_year ELSE clubs.last_year END`

// UpsertClubs persists a batch of club observations in one transaction,
// widening each club's first/last season window. Returns rows affected.
func (s *Store) UpsertClubs(ctx context.Context, records []scrape.ClubRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsert clubs: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var affected int
	for _, rec := range records {
		n, err := tx.Exec(ctx, upsertClubSQL,
			rec.ExternalID,
			rec.Name,
			scrape.NormalizeName(rec.Name),
			rec.FirstYear,
			rec.LastYear,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert club %s: %w", rec.ExternalID, err)
		}
		affected += int(n)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("upsert clubs: %w", err)
	}
	return affected, nil
}

// SelectClubs returns the clubs active in the given season, keyed by id.
// When clubID is non-empty only that club is returned.
func (s *Store) SelectClubs(ctx context.Context, season int, clubID string) (map[string]string, error) {
	var (
		query = "SELECT ffa_id, name FROM clubs WHERE first_year <= $1 AND last_year >= $2"
		args  = []any{season, season}
	)
	if clubID != "" {
		query = "SELECT ffa_id, name FROM clubs WHERE ffa_id = $1"
		args = []any{clubID}
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select clubs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	clubs := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan club: %w", err)
		}
		clubs[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select clubs: %w", err)
	}
	return clubs, nil
}
