// Package schedule coordinates detail-page enrichment: one bulk existence
// check, then a fixed-size worker pool fetching and extracting the
// candidates that are genuinely new.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/athledata/ffa-scraper/internal/extract"
	"github.com/athledata/ffa-scraper/internal/metrics"
	"github.com/athledata/ffa-scraper/internal/scrape"
)

// Config controls pool sizing.
type Config struct {
	Workers int
}

// Enricher turns roster candidates into athlete records.
type Enricher struct {
	fetcher scrape.Fetcher
	checker scrape.ExistenceChecker
	workers int
	logger  *zap.Logger
}

// New builds an Enricher.
func New(fetcher scrape.Fetcher, checker scrape.ExistenceChecker, cfg Config, logger *zap.Logger) *Enricher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 24
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		fetcher: fetcher,
		checker: checker,
		workers: workers,
		logger:  logger,
	}
}

// Enrich filters out candidates already persisted (one bulk query), then
// fetches and extracts each remaining candidate's detail page under bounded
// concurrency. At most one detail fetch is issued per external id per call;
// duplicate ids keep their first occurrence. Candidates whose fetch fails
// terminally are logged and left out of the result, to be picked up by a
// later run. A failed existence check aborts the whole batch.
func (e *Enricher) Enrich(ctx context.Context, candidates []scrape.Candidate) (map[string]scrape.AthleteRecord, error) {
	out := make(map[string]scrape.AthleteRecord)
	if len(candidates) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.ExternalID]; dup {
			continue
		}
		seen[c.ExternalID] = struct{}{}
		ids = append(ids, c.ExternalID)
	}

	existing, err := e.checker.CheckExisting(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("existence check: %w", err)
	}

	pending := make([]scrape.Candidate, 0, len(candidates))
	queued := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := existing[c.ExternalID]; ok {
			continue
		}
		if _, dup := queued[c.ExternalID]; dup {
			continue
		}
		queued[c.ExternalID] = struct{}{}
		pending = append(pending, c)
	}

	e.logger.Info("scheduling detail fetches",
		zap.Int("candidates", len(candidates)),
		zap.Int("already_stored", len(existing)),
		zap.Int("to_fetch", len(pending)),
	)
	return e.fetchAll(ctx, pending), nil
}

// Refresh re-enriches candidates regardless of whether they are already
// persisted: no existence filter, just first-seen dedup and the same worker
// pool. This is the backfill path for rows whose detail fields are still
// missing.
func (e *Enricher) Refresh(ctx context.Context, candidates []scrape.Candidate) map[string]scrape.AthleteRecord {
	pending := make([]scrape.Candidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.ExternalID]; dup {
			continue
		}
		seen[c.ExternalID] = struct{}{}
		pending = append(pending, c)
	}
	e.logger.Info("scheduling detail refreshes", zap.Int("to_fetch", len(pending)))
	return e.fetchAll(ctx, pending)
}

// fetchAll runs the worker pool over the pending candidates, collecting
// successful enrichments first-write-wins.
func (e *Enricher) fetchAll(ctx context.Context, pending []scrape.Candidate) map[string]scrape.AthleteRecord {
	out := make(map[string]scrape.AthleteRecord, len(pending))
	if len(pending) == 0 {
		return out
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan scrape.Candidate)
	)
	workers := e.workers
	if workers > len(pending) {
		workers = len(pending)
	}
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				rec, ok := e.enrichOne(ctx, c)
				if !ok {
					continue
				}
				mu.Lock()
				if _, dup := out[rec.ExternalID]; !dup {
					out[rec.ExternalID] = rec
				}
				mu.Unlock()
			}
		}()
	}

	// Stop handing out work once the context is done; in-flight fetches
	// run to completion under their own request timeout.
feed:
	for _, c := range pending {
		select {
		case jobs <- c:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return out
}

// enrichOne fetches and extracts a single candidate's detail page.
func (e *Enricher) enrichOne(ctx context.Context, c scrape.Candidate) (scrape.AthleteRecord, bool) {
	metrics.WorkerStarted()
	defer metrics.WorkerFinished()

	doc, err := e.fetcher.Fetch(ctx, c.DetailURL)
	if err != nil {
		var failure *scrape.FetchFailure
		if errors.As(err, &failure) {
			metrics.DetailFetch(string(failure.Kind))
			e.logger.Warn("detail fetch failed",
				zap.String("ffa_id", c.ExternalID),
				zap.String("url", c.DetailURL),
				zap.String("phase", "detail_fetch"),
				zap.String("kind", string(failure.Kind)),
				zap.Int("status", failure.Status),
				zap.Int("attempts", failure.Attempts),
			)
		} else {
			e.logger.Warn("detail fetch aborted",
				zap.String("ffa_id", c.ExternalID),
				zap.String("url", c.DetailURL),
				zap.String("phase", "detail_fetch"),
				zap.Error(err),
			)
		}
		return scrape.AthleteRecord{}, false
	}
	metrics.DetailFetch("ok")

	details := extract.Details(doc)
	return scrape.AthleteRecord{
		ExternalID:  c.ExternalID,
		Name:        c.Name,
		URL:         c.DetailURL,
		BirthYear:   details.BirthYear,
		LicenseID:   details.LicenseID,
		Sex:         details.Sex,
		Nationality: details.Nationality,
	}, true
}
