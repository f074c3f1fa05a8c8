package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/athledata/ffa-scraper/internal/scrape"
)

// detailTextSelector narrows scanning to the label-bearing block of the
// athlete page. Matching against full-page text would pick up unrelated
// four-digit tokens.
const detailTextSelector = "p.text-white"

// Label prefixes as rendered by the source site.
const (
	labelBirthYear = "Né(e) en"
	labelCategory  = "Catégorie / Nationalité"
	labelLicense   = "N° de licence"
)

var (
	yearToken    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	licenseToken = regexp.MustCompile(`\b\d{5,}\b`)
	nonLetter    = regexp.MustCompile(`[^A-Za-z]`)
)

// Details scans a detail page for the recognized labels and extracts birth
// year, license number, sex and nationality. Every field is independently
// optional; lines matching no label are ignored. A nil document (page could
// not be fetched or parsed) yields all-nil fields, which is a normal outcome
// rather than an error.
func Details(doc scrape.Document) scrape.Details {
	var d scrape.Details
	if doc == nil {
		return d
	}
	for _, line := range doc.TextLines(detailTextSelector) {
		switch {
		case strings.HasPrefix(line, labelBirthYear):
			if tok := yearToken.FindString(line); tok != "" {
				year, err := strconv.Atoi(tok)
				if err == nil && d.BirthYear == nil {
					d.BirthYear = &year
				}
			}
		case strings.HasPrefix(line, labelCategory):
			sex, nat := splitCategory(line)
			if d.Sex == nil {
				d.Sex = sex
			}
			if d.Nationality == nil {
				d.Nationality = nat
			}
		case strings.HasPrefix(line, labelLicense):
			if tok := licenseToken.FindString(line); tok != "" && d.LicenseID == nil {
				lic := tok
				d.LicenseID = &lic
			}
		}
	}
	return d
}

// splitCategory parses the "Catégorie / Nationalité : ES / F / FRA" value:
// the second slash-delimited segment carries the sex, the third the
// nationality.
func splitCategory(line string) (sex, nationality *string) {
	_, value, found := strings.Cut(line, ":")
	if !found {
		return nil, nil
	}
	parts := strings.Split(value, "/")
	if len(parts) < 3 {
		return nil, nil
	}
	s := nonLetter.ReplaceAllString(parts[1], "")
	if len(s) > 0 {
		v := s[:1]
		sex = &v
	}
	n := nonLetter.ReplaceAllString(parts[2], "")
	if len(n) > 0 {
		if len(n) > 3 {
			n = n[:3]
		}
		v := strings.ToUpper(n)
		nationality = &v
	}
	return sex, nationality
}
