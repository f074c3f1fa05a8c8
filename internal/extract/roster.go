// Package extract turns parsed source documents into candidates, athlete
// details and club rows. All extractors work against the scrape.Document
// capability and never see raw markup.
package extract

import (
	"regexp"

	"github.com/athledata/ffa-scraper/internal/scrape"
)

// athleteHref matches detail-page anchors and captures the external id
// embedded in the path.
var athleteHref = regexp.MustCompile(`athletes/([^/?#\s]+)`)

// Roster enumerates the athlete links of a roster page. Results form a set
// keyed by external id: the first occurrence of an id wins, later duplicates
// on the same page are dropped. An empty or unparseable page yields an empty
// slice, not an error.
func Roster(doc scrape.Document) []scrape.Candidate {
	if doc == nil {
		return nil
	}
	var (
		candidates []scrape.Candidate
		seen       = make(map[string]struct{})
	)
	for _, link := range doc.Links("athletes") {
		m := athleteHref.FindStringSubmatch(link.Href)
		if m == nil {
			continue
		}
		id := m[1]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		candidates = append(candidates, scrape.Candidate{
			ExternalID: id,
			Name:       link.Text,
			DetailURL:  scrape.AthleteURL(id),
		})
	}
	return candidates
}
