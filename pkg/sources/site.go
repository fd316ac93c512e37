package sources

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kerbaras/mirrorbook/pkg/config"
)

// SelectorSite is a Site driven by CSS selectors
type SelectorSite struct {
	tocSelector     string
	contentSelector string
	titlePrefix     string
	trimHead        int
	trimTail        int
}

// NewSelectorSite builds a Site from the site section of the config
func NewSelectorSite(cfg config.SiteConfig) *SelectorSite {
	return &SelectorSite{
		tocSelector:     cfg.TOCSelector,
		contentSelector: cfg.ContentSelector,
		titlePrefix:     cfg.TitlePrefix,
		trimHead:        cfg.TrimHead,
		trimTail:        cfg.TrimTail,
	}
}

// TOCLinks selects the ToC anchors and drops the boilerplate entries at both
// ends (an "about" link first and a "subscribe" link last on research!rsc).
func (s *SelectorSite) TOCLinks(doc *goquery.Document) (*goquery.Selection, error) {
	links := doc.Find(s.tocSelector)
	n := links.Length()
	if n == 0 {
		return nil, &StructureError{What: "table of contents", Selector: s.tocSelector}
	}
	if n < s.trimHead+s.trimTail {
		return nil, &StructureError{
			What:     fmt.Sprintf("table of contents with at least %d entries (found %d)", s.trimHead+s.trimTail, n),
			Selector: s.tocSelector,
		}
	}
	return links.Slice(s.trimHead, n-s.trimTail), nil
}

// Title returns the <title> text with the site prefix removed
func (s *SelectorSite) Title(doc *goquery.Document) (string, error) {
	title := doc.Find("head title").First()
	if title.Length() == 0 {
		return "", &StructureError{What: "title element", Selector: "head title"}
	}
	text := strings.TrimSpace(title.Text())
	return strings.TrimSpace(strings.TrimPrefix(text, s.titlePrefix)), nil
}

// ContentRegion returns the first element matching the content selector
func (s *SelectorSite) ContentRegion(doc *goquery.Document) (*goquery.Selection, error) {
	region := doc.Find(s.contentSelector)
	if region.Length() == 0 {
		return nil, &StructureError{What: "content region", Selector: s.contentSelector}
	}
	return region.First(), nil
}
