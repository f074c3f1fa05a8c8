// Package document implements the scrape.Document capability on top of
// goquery. It is the only package that knows the source pages are HTML.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/athledata/ffa-scraper/internal/scrape"
)

// HTMLDocument wraps a parsed goquery document.
type HTMLDocument struct {
	doc *goquery.Document
}

// Parse builds an HTMLDocument from a raw page body.
func Parse(body []byte) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &HTMLDocument{doc: doc}, nil
}

// Links returns every anchor whose href contains the given substring.
func (d *HTMLDocument) Links(hrefContains string) []scrape.Link {
	var links []scrape.Link
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !strings.Contains(href, hrefContains) {
			return
		}
		links = append(links, scrape.Link{
			Href: href,
			Text: collapse(s.Text()),
		})
	})
	return links
}

// Rows returns the direct cell texts of each row matching the selector.
// Cells of nested detail rows are not included.
func (d *HTMLDocument) Rows(selector string) [][]string {
	var rows [][]string
	d.doc.Find(selector).Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, collapse(td.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}

// TextLines returns the collapsed text of each element matching the selector.
func (d *HTMLDocument) TextLines(selector string) []string {
	var lines []string
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		lines = append(lines, collapse(s.Text()))
	})
	return lines
}

// OptionCount returns the number of options under the first match.
func (d *HTMLDocument) OptionCount(selector string) int {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return 0
	}
	return sel.Find("option, .select-option").Length()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
