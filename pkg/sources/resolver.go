package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher is the part of the content fetcher the resolver needs
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Resolver turns the index page into the ordered chapter URLs
type Resolver struct {
	indexURL string
	fetcher  Fetcher
	site     Site
}

// NewResolver creates a Resolver for the index at indexURL
func NewResolver(indexURL string, fetcher Fetcher, site Site) *Resolver {
	return &Resolver{indexURL: indexURL, fetcher: fetcher, site: site}
}

// ResolveIndex returns the chapter URLs in index order, newest first on
// research!rsc, every entry made absolute against the index URL.
func (r *Resolver) ResolveIndex(ctx context.Context) ([]string, error) {
	base, err := url.Parse(r.indexURL)
	if err != nil {
		return nil, fmt.Errorf("invalid index URL: %w", err)
	}

	path, err := r.fetcher.Fetch(ctx, r.indexURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index: %w", err)
	}

	doc, err := ParseHTMLFile(path)
	if err != nil {
		return nil, err
	}

	links, err := r.site.TOCLinks(doc)
	if err != nil {
		return nil, AttachURL(err, r.indexURL)
	}

	urls := make([]string, 0, links.Length())
	var linkErr error
	links.EachWithBreak(func(i int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			linkErr = &StructureError{URL: r.indexURL, What: fmt.Sprintf("href on table of contents entry %d", i)}
			return false
		}
		ref, err := ParseReference(href)
		if err != nil {
			linkErr = fmt.Errorf("invalid chapter link %q: %w", href, err)
			return false
		}
		urls = append(urls, base.ResolveReference(ref).String())
		return true
	})
	if linkErr != nil {
		return nil, linkErr
	}

	return urls, nil
}

// AttachURL fills in the page URL of a StructureError raised by a Site
func AttachURL(err error, pageURL string) error {
	var structure *StructureError
	if errors.As(err, &structure) && structure.URL == "" {
		structure.URL = pageURL
	}
	return err
}
