package scrape

// Candidate is one athlete link discovered on a roster page. Candidates are
// ephemeral: they exist between roster extraction and the scheduling
// decision, and are keyed by ExternalID.
type Candidate struct {
	ExternalID string
	Name       string
	DetailURL  string
}

// Details holds the enrichment fields scraped from an athlete detail page.
// Every field is independently optional; a nil value means the page did not
// carry that label, which is a normal outcome for partial or retired entries.
type Details struct {
	BirthYear   *int
	LicenseID   *string
	Sex         *string
	Nationality *string
}

// AthleteRecord is the persisted shape of one athlete. ExternalID is the
// FFA-assigned identifier and the natural key in storage.
type AthleteRecord struct {
	ExternalID  string
	Name        string
	URL         string
	BirthYear   *int
	LicenseID   *string
	Sex         *string
	Nationality *string
}

// ClubRecord is the persisted shape of one club. FirstYear and LastYear
// bound the seasons the club was observed in the source listings.
type ClubRecord struct {
	ExternalID string
	Name       string
	FirstYear  int
	LastYear   int
}

// PlaceholderLicense is the sentinel the source uses for an unknown license
// number. It is stored verbatim but excluded from uniqueness enforcement.
const PlaceholderLicense = "-"
