package extract

import (
	"regexp"
	"strings"

	"github.com/athledata/ffa-scraper/internal/scrape"
)

// clubRowSelector targets the listing rows; decorative and nested detail
// rows are filtered out by cell count below.
const clubRowSelector = "table tr"

// Useful listing rows carry exactly seven cells: the club name sits in the
// third, its id in the fourth.
const clubRowCells = 7

var trailingStars = regexp.MustCompile(`\*+$`)

// ClubPage extracts the (id, name) pairs of one club listing page, keyed by
// club id with first occurrence winning.
func ClubPage(doc scrape.Document) []scrape.ClubRecord {
	if doc == nil {
		return nil
	}
	var (
		clubs []scrape.ClubRecord
		seen  = make(map[string]struct{})
	)
	for _, cells := range doc.Rows(clubRowSelector) {
		if len(cells) != clubRowCells {
			continue
		}
		name := strings.TrimSpace(trailingStars.ReplaceAllString(cells[2], ""))
		id := strings.TrimSpace(cells[3])
		if id == "" || name == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		clubs = append(clubs, scrape.ClubRecord{ExternalID: id, Name: name})
	}
	return clubs
}
