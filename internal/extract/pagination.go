package extract

import "github.com/athledata/ffa-scraper/internal/scrape"

// Pagination controls rendered by the source listings. Roster pages use a
// select element, the club listing a div of styled options.
const (
	rosterPaginationSelector = "select.barSelect"
	clubsPaginationSelector  = "#optionsPagination"
)

// RosterPageCount reads the number of roster pages advertised by the
// pagination control of a first roster page. Zero means the listing is
// empty or the control is absent.
func RosterPageCount(doc scrape.Document) int {
	if doc == nil {
		return 0
	}
	return doc.OptionCount(rosterPaginationSelector)
}

// ClubsPageCount reads the number of club listing pages for a season.
func ClubsPageCount(doc scrape.Document) int {
	if doc == nil {
		return 0
	}
	return doc.OptionCount(clubsPaginationSelector)
}
