package scrape

import "fmt"

// URL templates for the bases.athle.fr listings. Season, club id and page
// index are the only moving parts; everything else is fixed query plumbing
// the source site expects.
const (
	rosterURLTemplate = "https://www.athle.fr/bases/liste.aspx?frmbase=cclubs&frmmode=2&frmespace=&frmtypeclub=M&frmsaison=%d&frmnclub=%s&frmposition=%d"
	athleteURLPattern = "https://www.athle.fr/athletes/%s"
	clubsURLTemplate  = "https://www.athle.fr/bases/liste.aspx?frmpostback=true&frmbase=cclubs&frmmode=1&frmespace=0&frmsaison=%d&frmsexe=&frmligue=&frmdepartement=&frmnclub=&frmruptures=&frmposition=%d"
)

// RosterURL addresses one page of a club's athlete roster for a season.
func RosterURL(season int, clubID string, page int) string {
	return fmt.Sprintf(rosterURLTemplate, season, clubID, page)
}

// AthleteURL addresses the detail page of one athlete.
func AthleteURL(externalID string) string {
	return fmt.Sprintf(athleteURLPattern, externalID)
}

// ClubsURL addresses one page of the season-wide club listing.
func ClubsURL(season int, page int) string {
	return fmt.Sprintf(clubsURLTemplate, season, page)
}
