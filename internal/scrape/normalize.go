package scrape

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName projects a display name into its search form: lower case,
// diacritics folded, whitespace collapsed to single spaces. The store
// recomputes this on every write so it can never drift from the name.
func NormalizeName(name string) string {
	// Transformers carry state; build a fresh chain per call so concurrent
	// callers do not share one.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	lowered := strings.ToLower(name)
	folded, _, err := transform.String(fold, lowered)
	if err != nil {
		folded = lowered
	}
	return strings.Join(strings.Fields(folded), " ")
}
