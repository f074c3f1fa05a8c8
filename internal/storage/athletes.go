package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/athledata/ffa-scraper/internal/scrape"
)

const upsertAthleteSQL = `
INSERT INTO athletes (ffa_id, name, normalized_name, url, birth_year, license_id, sex, nationality)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (ffa_id) DO UPDATE SET
	name = excluded.name,
	normalized_name = excluded.normalized_name,
	url = excluded.url,
	birth_year = COALESCE(excluded.birth_year, athletes.birth_year),
	license_id = COALESCE(excluded.license_id, athletes.license_id),
	sex = COALESCE(excluded.sex, athletes.sex),
	nationality = COALESCE(excluded.nationality, athletes.nationality),
	updated_at = CURRENT_TIMESTAMP`

// Store implements scrape.AthleteStore and scrape.ClubStore over a DB
// backend. It is the only writer of athlete and club rows.
type Store struct {
	db     DB
	logger *zap.Logger
}

// New builds a Store.
func New(db DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckExisting returns the subset of ids already persisted, in a single
// query regardless of input size. An empty input returns an empty set
// without touching the database.
func (s *Store) CheckExisting(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(
		"SELECT ffa_id FROM athletes WHERE ffa_id IN (%s)",
		strings.Join(placeholders, ", "),
	)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("check existing athletes: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ffa_id: %w", err)
		}
		existing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("check existing athletes: %w", err)
	}
	return existing, nil
}

// SelectIncomplete returns the athletes whose detail fields never made it
// into the store: missing url, birth year or license. These are the rows
// the update pass re-fetches so the merge upsert can fill the gaps.
func (s *Store) SelectIncomplete(ctx context.Context) ([]scrape.Candidate, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ffa_id, name FROM athletes
		WHERE url IS NULL OR url = '' OR birth_year IS NULL OR license_id IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("select incomplete athletes: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var candidates []scrape.Candidate
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan incomplete athlete: %w", err)
		}
		candidates = append(candidates, scrape.Candidate{
			ExternalID: id,
			Name:       name,
			DetailURL:  scrape.AthleteURL(id),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select incomplete athletes: %w", err)
	}
	return candidates, nil
}

// UpsertAthletes persists a batch in one transaction. Name, normalized
// name and URL always take the incoming value; the enrichment fields only
// move from NULL to a value or from one value to a newer non-NULL one.
// A record whose license number is already held by another athlete is
// rolled back to its savepoint, reported as a violation and skipped; the
// rest of the batch still commits. Infrastructure errors abort the whole
// batch.
func (s *Store) UpsertAthletes(ctx context.Context, records []scrape.AthleteRecord) (int, []scrape.ConstraintViolation, error) {
	if len(records) == 0 {
		return 0, nil, nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("upsert athletes: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		affected   int
		violations []scrape.ConstraintViolation
	)
	for i, rec := range records {
		sp := fmt.Sprintf("sp_athlete_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+sp); err != nil {
			return 0, nil, fmt.Errorf("savepoint: %w", err)
		}
		n, err := tx.Exec(ctx, upsertAthleteSQL,
			rec.ExternalID,
			rec.Name,
			scrape.NormalizeName(rec.Name),
			rec.URL,
			rec.BirthYear,
			rec.LicenseID,
			rec.Sex,
			rec.Nationality,
		)
		if err != nil {
			if !errors.Is(err, ErrUniqueViolation) {
				return 0, nil, fmt.Errorf("upsert athlete %s: %w", rec.ExternalID, err)
			}
			if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
				return 0, nil, fmt.Errorf("rollback savepoint: %w", rbErr)
			}
			v := scrape.ConstraintViolation{ExternalID: rec.ExternalID}
			if rec.LicenseID != nil {
				v.LicenseID = *rec.LicenseID
			}
			violations = append(violations, v)
			s.logger.Warn("license already assigned, skipping record",
				zap.String("ffa_id", v.ExternalID),
				zap.String("license_id", v.LicenseID),
			)
			continue
		}
		if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
			return 0, nil, fmt.Errorf("release savepoint: %w", err)
		}
		affected += int(n)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, nil, fmt.Errorf("upsert athletes: %w", err)
	}
	return affected, violations, nil
}
