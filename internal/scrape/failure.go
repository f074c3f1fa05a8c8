package scrape

import "fmt"

// FailureKind classifies a terminal fetch outcome.
type FailureKind string

// Fetch failure kinds.
const (
	// FailureTimeout means every attempt timed out.
	FailureTimeout FailureKind = "timeout"
	// FailureHTTP means the server answered with a 4xx/5xx status.
	FailureHTTP FailureKind = "http_error"
	// FailureNetwork means a non-timeout transport error persisted across
	// all attempts.
	FailureNetwork FailureKind = "network"
)

// FetchFailure is the terminal, classified outcome of a failed fetch.
// Transient failures are retried inside the fetcher; a FetchFailure is only
// surfaced once the attempt budget is spent or the failure is permanent.
type FetchFailure struct {
	Kind     FailureKind
	URL      string
	Status   int
	Attempts int
	Err      error
}

func (f *FetchFailure) Error() string {
	switch f.Kind {
	case FailureHTTP:
		return fmt.Sprintf("fetch %s: http status %d", f.URL, f.Status)
	default:
		return fmt.Sprintf("fetch %s: %s after %d attempts", f.URL, f.Kind, f.Attempts)
	}
}

func (f *FetchFailure) Unwrap() error { return f.Err }

// ConstraintViolation reports a record skipped by the store because writing
// it would reuse a license number already held by another athlete.
type ConstraintViolation struct {
	ExternalID string
	LicenseID  string
}

func (v *ConstraintViolation) Error() string {
	return fmt.Sprintf("athlete %s: license %s already assigned", v.ExternalID, v.LicenseID)
}
