// Package pipeline drives the season/club iteration: roster scan, detail
// enrichment, persistence. Failures local to one page or one candidate are
// logged and skipped; infrastructure failures abort the current club or
// season and the run moves on to the next.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/athledata/ffa-scraper/internal/extract"
	"github.com/athledata/ffa-scraper/internal/metrics"
	"github.com/athledata/ffa-scraper/internal/scrape"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	scrape.AthleteStore
	scrape.ClubStore
	// SelectClubs returns the clubs active in a season, keyed by id; a
	// non-empty clubID restricts the result to that club.
	SelectClubs(ctx context.Context, season int, clubID string) (map[string]string, error)
	// SelectIncomplete returns the athletes still missing detail fields.
	SelectIncomplete(ctx context.Context) ([]scrape.Candidate, error)
}

// Enricher resolves candidates into athlete records. Enrich skips
// already-persisted candidates; Refresh fetches every candidate it is given.
type Enricher interface {
	Enrich(ctx context.Context, candidates []scrape.Candidate) (map[string]scrape.AthleteRecord, error)
	Refresh(ctx context.Context, candidates []scrape.Candidate) map[string]scrape.AthleteRecord
}

// Config bounds the season range and optionally pins a single club.
type Config struct {
	FirstYear int
	LastYear  int
	ClubID    string
}

// Pipeline wires fetcher, enricher and store together.
type Pipeline struct {
	fetcher  scrape.Fetcher
	enricher Enricher
	store    Store
	cfg      Config
	logger   *zap.Logger
}

// New builds a Pipeline.
func New(fetcher scrape.Fetcher, enricher Enricher, store Store, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:  fetcher,
		enricher: enricher,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// Athletes walks every configured season and club, scans rosters, enriches
// new candidates and persists them. It returns the total number of rows
// affected across the run.
func (p *Pipeline) Athletes(ctx context.Context) (int, error) {
	run := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", run))
	logger.Info("athlete scrape starting",
		zap.Int("first_year", p.cfg.FirstYear),
		zap.Int("last_year", p.cfg.LastYear),
	)

	total := 0
	for year := p.cfg.FirstYear; year <= p.cfg.LastYear; year++ {
		if ctx.Err() != nil {
			return total, fmt.Errorf("athlete scrape: %w", ctx.Err())
		}
		clubs, err := p.store.SelectClubs(ctx, year, p.cfg.ClubID)
		if err != nil {
			return total, fmt.Errorf("season %d: %w", year, err)
		}
		logger.Info("processing season", zap.Int("year", year), zap.Int("clubs", len(clubs)))
		for clubID, clubName := range clubs {
			n, err := p.processClub(ctx, logger, year, clubID, clubName)
			total += n
			if err != nil {
				if ctx.Err() != nil {
					return total, fmt.Errorf("athlete scrape: %w", ctx.Err())
				}
				logger.Error("club skipped",
					zap.Int("year", year),
					zap.String("club_id", clubID),
					zap.Error(err),
				)
			}
		}
	}
	logger.Info("athlete scrape finished", zap.Int("rows_affected", total))
	return total, nil
}

// Update re-fetches the detail pages of every stored athlete still missing
// url, birth year or license, and upserts the results so the merge rules
// fill the gaps. It returns the number of rows affected.
func (p *Pipeline) Update(ctx context.Context) (int, error) {
	run := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", run))

	candidates, err := p.store.SelectIncomplete(ctx)
	if err != nil {
		return 0, fmt.Errorf("athlete update: %w", err)
	}
	logger.Info("athlete update starting", zap.Int("incomplete", len(candidates)))
	if len(candidates) == 0 {
		return 0, nil
	}

	records := p.enricher.Refresh(ctx, candidates)
	if ctx.Err() != nil {
		return 0, fmt.Errorf("athlete update: %w", ctx.Err())
	}
	batch := make([]scrape.AthleteRecord, 0, len(records))
	for _, rec := range records {
		batch = append(batch, rec)
	}
	affected, violations, err := p.store.UpsertAthletes(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("athlete update: %w", err)
	}
	metrics.AthletesUpserted(affected)
	metrics.LicenseConflicts(len(violations))
	for _, v := range violations {
		logger.Warn("license conflict reported",
			zap.String("ffa_id", v.ExternalID),
			zap.String("license_id", v.LicenseID),
		)
	}
	logger.Info("athlete update finished",
		zap.Int("incomplete", len(candidates)),
		zap.Int("refreshed", len(records)),
		zap.Int("rows_affected", affected),
	)
	return affected, nil
}

// processClub handles one (season, club) unit: roster pages, enrichment,
// persistence.
func (p *Pipeline) processClub(ctx context.Context, logger *zap.Logger, year int, clubID, clubName string) (int, error) {
	candidates := p.scanRoster(ctx, logger, year, clubID)
	if len(candidates) == 0 {
		return 0, nil
	}
	records, err := p.enricher.Enrich(ctx, candidates)
	if err != nil {
		return 0, fmt.Errorf("enrich club %s (%s): %w", clubID, clubName, err)
	}
	batch := make([]scrape.AthleteRecord, 0, len(records))
	for _, rec := range records {
		batch = append(batch, rec)
	}
	affected, violations, err := p.store.UpsertAthletes(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("persist club %s (%s): %w", clubID, clubName, err)
	}
	metrics.AthletesUpserted(affected)
	metrics.LicenseConflicts(len(violations))
	for _, v := range violations {
		logger.Warn("license conflict reported",
			zap.Int("year", year),
			zap.String("club_id", clubID),
			zap.String("ffa_id", v.ExternalID),
			zap.String("license_id", v.LicenseID),
		)
	}
	logger.Info("club processed",
		zap.Int("year", year),
		zap.String("club_id", clubID),
		zap.String("club", clubName),
		zap.Int("candidates", len(candidates)),
		zap.Int("rows_affected", affected),
		zap.Int("skipped", len(violations)),
	)
	return affected, nil
}

// scanRoster collects the candidates of every roster page for one club and
// season. Page count is discovered up front from the first page, so the
// loop always runs over a finite, known URL list. A page that fails to
// fetch is logged and skipped.
func (p *Pipeline) scanRoster(ctx context.Context, logger *zap.Logger, year int, clubID string) []scrape.Candidate {
	first, err := p.fetchPage(ctx, logger, scrape.RosterURL(year, clubID, 0), "roster_scan")
	if err != nil {
		return nil
	}
	pages := extract.RosterPageCount(first)

	var (
		candidates []scrape.Candidate
		seen       = make(map[string]struct{})
	)
	merge := func(batch []scrape.Candidate) {
		for _, c := range batch {
			if _, dup := seen[c.ExternalID]; dup {
				continue
			}
			seen[c.ExternalID] = struct{}{}
			candidates = append(candidates, c)
		}
	}

	merge(extract.Roster(first))
	metrics.RosterPage()
	for page := 1; page < pages; page++ {
		doc, err := p.fetchPage(ctx, logger, scrape.RosterURL(year, clubID, page), "roster_scan")
		if err != nil {
			continue
		}
		merge(extract.Roster(doc))
		metrics.RosterPage()
	}
	return candidates
}

// Clubs walks every configured season's club listing and persists the
// clubs, widening each club's activity window. It returns the total rows
// affected.
func (p *Pipeline) Clubs(ctx context.Context) (int, error) {
	run := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", run))
	logger.Info("club scrape starting",
		zap.Int("first_year", p.cfg.FirstYear),
		zap.Int("last_year", p.cfg.LastYear),
	)

	total := 0
	for year := p.cfg.FirstYear; year <= p.cfg.LastYear; year++ {
		if ctx.Err() != nil {
			return total, fmt.Errorf("club scrape: %w", ctx.Err())
		}
		records := p.scanClubs(ctx, logger, year)
		if len(records) == 0 {
			continue
		}
		affected, err := p.store.UpsertClubs(ctx, records)
		if err != nil {
			logger.Error("season skipped", zap.Int("year", year), zap.Error(err))
			continue
		}
		metrics.ClubsUpserted(affected)
		total += affected
		logger.Info("season processed",
			zap.Int("year", year),
			zap.Int("clubs", len(records)),
			zap.Int("rows_affected", affected),
		)
	}
	logger.Info("club scrape finished", zap.Int("rows_affected", total))
	return total, nil
}

// scanClubs collects the club rows of every listing page for one season.
func (p *Pipeline) scanClubs(ctx context.Context, logger *zap.Logger, year int) []scrape.ClubRecord {
	first, err := p.fetchPage(ctx, logger, scrape.ClubsURL(year, 0), "club_scan")
	if err != nil {
		return nil
	}
	pages := extract.ClubsPageCount(first)

	var (
		records []scrape.ClubRecord
		seen    = make(map[string]struct{})
	)
	merge := func(batch []scrape.ClubRecord) {
		for _, rec := range batch {
			if _, dup := seen[rec.ExternalID]; dup {
				continue
			}
			seen[rec.ExternalID] = struct{}{}
			rec.FirstYear = year
			rec.LastYear = year
			records = append(records, rec)
		}
	}

	merge(extract.ClubPage(first))
	for page := 1; page < pages; page++ {
		doc, err := p.fetchPage(ctx, logger, scrape.ClubsURL(year, page), "club_scan")
		if err != nil {
			continue
		}
		merge(extract.ClubPage(doc))
	}
	return records
}

// fetchPage wraps one listing fetch with phase-tagged failure logging.
func (p *Pipeline) fetchPage(ctx context.Context, logger *zap.Logger, url, phase string) (scrape.Document, error) {
	doc, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		var failure *scrape.FetchFailure
		if errors.As(err, &failure) {
			logger.Warn("listing fetch failed",
				zap.String("url", url),
				zap.String("phase", phase),
				zap.String("kind", string(failure.Kind)),
				zap.Int("status", failure.Status),
			)
		} else {
			logger.Warn("listing fetch aborted",
				zap.String("url", url),
				zap.String("phase", phase),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return doc, nil
}
