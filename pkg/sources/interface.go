// Package sources isolates everything that depends on the markup of the
// source site: where the table of contents lives, how a page is titled and
// which subtree holds the article.
package sources

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Site describes the structure of one source-site shape
type Site interface {
	// TOCLinks returns the ordered chapter anchors of the index page,
	// boilerplate already trimmed.
	TOCLinks(doc *goquery.Document) (*goquery.Selection, error)
	// Title returns the chapter title of a page
	Title(doc *goquery.Document) (string, error)
	// ContentRegion returns the single subtree carried into the book
	ContentRegion(doc *goquery.Document) (*goquery.Selection, error)
}

// StructureError reports markup the site adapter expected but did not find.
// It means the source layout changed.
type StructureError struct {
	URL      string
	What     string
	Selector string
}

func (e *StructureError) Error() string {
	msg := fmt.Sprintf("unexpected page structure: %s not found", e.What)
	if e.Selector != "" {
		msg += fmt.Sprintf(" (selector %q)", e.Selector)
	}
	if e.URL != "" {
		msg += " in " + e.URL
	}
	return msg
}
