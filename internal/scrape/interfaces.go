package scrape

import "context"

// Link is one anchor found in a document.
type Link struct {
	Href string
	Text string
}

// Document is the capability interface the extractors query. It keeps the
// source site's markup grammar opaque: extractors ask for links, row cells,
// or text lines and never touch the DOM directly.
type Document interface {
	// Links returns every anchor whose href contains the given substring.
	Links(hrefContains string) []Link
	// Rows returns the cell texts of each table row matching the selector.
	Rows(selector string) [][]string
	// TextLines returns the flattened text of each element matching the
	// selector, one entry per element, whitespace collapsed.
	TextLines(selector string) []string
	// OptionCount returns the number of options under the first element
	// matching the selector. Used for pagination discovery.
	OptionCount(selector string) int
}

// Fetcher retrieves a URL and returns its parsed document. Expected network
// failures come back as a *FetchFailure, never a panic.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Document, error)
}

// ExistenceChecker answers, in one round trip, which of the given external
// ids are already persisted.
type ExistenceChecker interface {
	CheckExisting(ctx context.Context, ids []string) (map[string]struct{}, error)
}

// AthleteStore owns all write access to athlete rows.
type AthleteStore interface {
	ExistenceChecker
	// UpsertAthletes persists a batch with merge semantics and returns the
	// number of rows affected plus any license constraint violations that
	// were skipped.
	UpsertAthletes(ctx context.Context, records []AthleteRecord) (int, []ConstraintViolation, error)
}

// ClubStore owns all write access to club rows.
type ClubStore interface {
	UpsertClubs(ctx context.Context, records []ClubRecord) (int, error)
}
