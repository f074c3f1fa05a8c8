package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/athledata/ffa-scraper/internal/document"
	"github.com/athledata/ffa-scraper/internal/scrape"
)

// pageFetcher serves canned HTML keyed by URL; anything else is a network
// failure.
type pageFetcher struct {
	pages   map[string]string
	fetched []string
}

func (f *pageFetcher) Fetch(_ context.Context, url string) (scrape.Document, error) {
	f.fetched = append(f.fetched, url)
	html, ok := f.pages[url]
	if !ok {
		return nil, &scrape.FetchFailure{Kind: scrape.FailureNetwork, URL: url, Attempts: 3}
	}
	doc, err := document.Parse([]byte(html))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type passthroughEnricher struct {
	batches   [][]scrape.Candidate
	refreshed [][]scrape.Candidate
	err       error
}

func (e *passthroughEnricher) Enrich(_ context.Context, candidates []scrape.Candidate) (map[string]scrape.AthleteRecord, error) {
	e.batches = append(e.batches, candidates)
	if e.err != nil {
		return nil, e.err
	}
	return records(candidates), nil
}

func (e *passthroughEnricher) Refresh(_ context.Context, candidates []scrape.Candidate) map[string]scrape.AthleteRecord {
	e.refreshed = append(e.refreshed, candidates)
	return records(candidates)
}

func records(candidates []scrape.Candidate) map[string]scrape.AthleteRecord {
	out := make(map[string]scrape.AthleteRecord, len(candidates))
	for _, c := range candidates {
		out[c.ExternalID] = scrape.AthleteRecord{ExternalID: c.ExternalID, Name: c.Name, URL: c.DetailURL}
	}
	return out
}

type recordingStore struct {
	clubsBySeason map[int]map[string]string
	selectErr     error
	incomplete    []scrape.Candidate
	incompleteErr error
	athleteBatch  [][]scrape.AthleteRecord
	clubBatch     [][]scrape.ClubRecord
}

func (s *recordingStore) CheckExisting(context.Context, []string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (s *recordingStore) UpsertAthletes(_ context.Context, records []scrape.AthleteRecord) (int, []scrape.ConstraintViolation, error) {
	s.athleteBatch = append(s.athleteBatch, records)
	return len(records), nil, nil
}

func (s *recordingStore) UpsertClubs(_ context.Context, records []scrape.ClubRecord) (int, error) {
	s.clubBatch = append(s.clubBatch, records)
	return len(records), nil
}

func (s *recordingStore) SelectIncomplete(context.Context) ([]scrape.Candidate, error) {
	if s.incompleteErr != nil {
		return nil, s.incompleteErr
	}
	return s.incomplete, nil
}

func (s *recordingStore) SelectClubs(_ context.Context, season int, clubID string) (map[string]string, error) {
	if s.selectErr != nil {
		return nil, s.selectErr
	}
	clubs := s.clubsBySeason[season]
	if clubID == "" {
		return clubs, nil
	}
	out := make(map[string]string)
	if name, ok := clubs[clubID]; ok {
		out[clubID] = name
	}
	return out, nil
}

func rosterHTML(pages int, ids ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><select class="barSelect">`)
	for range pages {
		b.WriteString("<option>x</option>")
	}
	b.WriteString("</select>")
	for _, id := range ids {
		fmt.Fprintf(&b, `<a href="/athletes/%s">ATHLETE %s</a>`, id, id)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func clubsHTML(pages int, clubs map[string]string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="optionsPagination">`)
	for range pages {
		b.WriteString(`<div class="select-option">x</div>`)
	}
	b.WriteString("</div><table>")
	for id, name := range clubs {
		fmt.Fprintf(&b,
			`<tr><td>1</td><td>d</td><td><a href="#">%s</a></td><td>%s</td><td>x</td><td>y</td><td>z</td></tr>`,
			name, id)
	}
	b.WriteString("</table></body></html>")
	return b.String()
}

func TestAthletesWalksSeasonsAndClubs(t *testing.T) {
	t.Parallel()

	store := &recordingStore{clubsBySeason: map[int]map[string]string{
		2020: {"077001": "CLUB A"},
		2021: {"077001": "CLUB A"},
	}}
	fetcher := &pageFetcher{pages: map[string]string{
		scrape.RosterURL(2020, "077001", 0): rosterHTML(2, "1", "2"),
		scrape.RosterURL(2020, "077001", 1): rosterHTML(2, "2", "3"),
		scrape.RosterURL(2021, "077001", 0): rosterHTML(1, "4"),
	}}
	enricher := &passthroughEnricher{}
	p := New(fetcher, enricher, store, Config{FirstYear: 2020, LastYear: 2021}, zap.NewNop())

	total, err := p.Athletes(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, total, "3 unique ids in 2020 plus 1 in 2021")
	require.Len(t, enricher.batches, 2)
	require.Len(t, enricher.batches[0], 3, "duplicate id across pages counted once")
	require.Len(t, store.athleteBatch, 2)
}

func TestAthletesSkipsFailedRosterPage(t *testing.T) {
	t.Parallel()

	store := &recordingStore{clubsBySeason: map[int]map[string]string{
		2020: {"077001": "CLUB A"},
	}}
	// Page 0 advertises 3 pages but page 2 is unreachable.
	fetcher := &pageFetcher{pages: map[string]string{
		scrape.RosterURL(2020, "077001", 0): rosterHTML(3, "1"),
		scrape.RosterURL(2020, "077001", 1): rosterHTML(3, "2"),
	}}
	enricher := &passthroughEnricher{}
	p := New(fetcher, enricher, store, Config{FirstYear: 2020, LastYear: 2020}, zap.NewNop())

	total, err := p.Athletes(context.Background())
	require.NoError(t, err, "one bad page does not fail the club")
	require.Equal(t, 2, total)
}

func TestAthletesAbortsSeasonOnClubListError(t *testing.T) {
	t.Parallel()

	store := &recordingStore{selectErr: errors.New("connection refused")}
	p := New(&pageFetcher{}, &passthroughEnricher{}, store, Config{FirstYear: 2020, LastYear: 2020}, zap.NewNop())

	_, err := p.Athletes(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "season 2020")
}

func TestAthletesContinuesAfterEnrichFailure(t *testing.T) {
	t.Parallel()

	store := &recordingStore{clubsBySeason: map[int]map[string]string{
		2020: {"077001": "CLUB A", "077002": "CLUB B"},
	}}
	fetcher := &pageFetcher{pages: map[string]string{
		scrape.RosterURL(2020, "077001", 0): rosterHTML(1, "1"),
		scrape.RosterURL(2020, "077002", 0): rosterHTML(1, "2"),
	}}
	enricher := &passthroughEnricher{err: errors.New("existence check: connection refused")}
	p := New(fetcher, enricher, store, Config{FirstYear: 2020, LastYear: 2020}, zap.NewNop())

	total, err := p.Athletes(context.Background())
	require.NoError(t, err, "a failed club is logged and skipped")
	require.Zero(t, total)
	require.Len(t, enricher.batches, 2, "the other club is still attempted")
}

func TestClubsSetsSeasonWindow(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	fetcher := &pageFetcher{pages: map[string]string{
		scrape.ClubsURL(2019, 0): clubsHTML(2, map[string]string{"077001": "EA SAINT-QUENTIN *"}),
		scrape.ClubsURL(2019, 1): clubsHTML(2, map[string]string{"077002": "CA MONTREUIL"}),
	}}
	p := New(fetcher, &passthroughEnricher{}, store, Config{FirstYear: 2019, LastYear: 2019}, zap.NewNop())

	total, err := p.Clubs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, store.clubBatch, 1)

	byID := make(map[string]scrape.ClubRecord)
	for _, rec := range store.clubBatch[0] {
		byID[rec.ExternalID] = rec
	}
	require.Equal(t, "EA SAINT-QUENTIN", byID["077001"].Name, "trailing asterisk stripped")
	require.Equal(t, 2019, byID["077001"].FirstYear)
	require.Equal(t, 2019, byID["077001"].LastYear)
	require.Contains(t, byID, "077002")
}

func TestUpdateRefreshesIncompleteAthletes(t *testing.T) {
	t.Parallel()

	store := &recordingStore{incomplete: []scrape.Candidate{
		{ExternalID: "1", Name: "NO URL", DetailURL: scrape.AthleteURL("1")},
		{ExternalID: "2", Name: "NO YEAR", DetailURL: scrape.AthleteURL("2")},
	}}
	enricher := &passthroughEnricher{}
	p := New(&pageFetcher{}, enricher, store, Config{}, zap.NewNop())

	total, err := p.Update(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, enricher.refreshed, 1)
	require.Len(t, enricher.refreshed[0], 2)
	require.Empty(t, enricher.batches, "update bypasses the existence-filtered path")
	require.Len(t, store.athleteBatch, 1)
	require.Len(t, store.athleteBatch[0], 2)
}

func TestUpdateNoIncompleteRows(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	enricher := &passthroughEnricher{}
	p := New(&pageFetcher{}, enricher, store, Config{}, zap.NewNop())

	total, err := p.Update(context.Background())
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, enricher.refreshed)
	require.Empty(t, store.athleteBatch)
}

func TestUpdateAbortsOnSelectError(t *testing.T) {
	t.Parallel()

	store := &recordingStore{incompleteErr: errors.New("connection refused")}
	p := New(&pageFetcher{}, &passthroughEnricher{}, store, Config{}, zap.NewNop())

	_, err := p.Update(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "athlete update")
}

func TestAthletesStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &recordingStore{clubsBySeason: map[int]map[string]string{2020: {"077001": "CLUB A"}}}
	p := New(&pageFetcher{}, &passthroughEnricher{}, store, Config{FirstYear: 2020, LastYear: 2021}, zap.NewNop())

	_, err := p.Athletes(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
