// Package transform rewrites fetched pages for offline reading. It is pure:
// resource files are not touched here, the caller receives copy
// instructions and executes them.
package transform

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kerbaras/mirrorbook/pkg/cache"
	"github.com/kerbaras/mirrorbook/pkg/sources"
)

// Page is one chapter: its remote URL and the cached copy of it
type Page struct {
	URL  string
	Path string
}

// Resource is an image referenced by a page. Name is the flat filename the
// resource gets in the staging directory.
type Resource struct {
	URL  string
	Name string
}

// Fragment is the relinked content region of a page
type Fragment struct {
	URL   string
	Title string
	// HTML is the content region including its wrapper element
	HTML string
	// Inner is the content region with the wrapper removed
	Inner string
	// Copies lists the resources to copy next to the output document
	Copies []Resource
}

// ExtractResources returns the images of markup, resolved against baseURL,
// in document order and without duplicates. Inline data: images are
// skipped since they need no fetching.
func ExtractResources(baseURL string, markup []byte) ([]Resource, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", baseURL, err)
	}

	doc, err := sources.ParseHTMLBytes(markup)
	if err != nil {
		return nil, err
	}

	return collectImages(doc.Selection, base, nil)
}

// Transformer relinks pages using a site adapter
type Transformer struct {
	site sources.Site
}

// NewTransformer creates a Transformer
func NewTransformer(site sources.Site) *Transformer {
	return &Transformer{site: site}
}

// Transform extracts the content region of page and relinks it: image
// sources become staged filenames and scheme-less hyperlinks become
// absolute. A page without a title or content region is rejected.
func (t *Transformer) Transform(page Page, markup []byte) (*Fragment, error) {
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", page.URL, err)
	}

	doc, err := sources.ParseHTMLBytes(markup)
	if err != nil {
		return nil, err
	}

	title, err := t.site.Title(doc)
	if err != nil {
		return nil, sources.AttachURL(err, page.URL)
	}

	region, err := t.site.ContentRegion(doc)
	if err != nil {
		return nil, sources.AttachURL(err, page.URL)
	}

	copies, err := collectImages(region, base, func(img *goquery.Selection, res Resource) {
		img.SetAttr("src", res.Name)
	})
	if err != nil {
		return nil, err
	}

	absolutizeLinks(region, base)

	outer, err := goquery.OuterHtml(region)
	if err != nil {
		return nil, fmt.Errorf("failed to render content region: %w", err)
	}
	inner, err := region.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to render content region: %w", err)
	}

	return &Fragment{
		URL:    page.URL,
		Title:  title,
		HTML:   outer,
		Inner:  inner,
		Copies: copies,
	}, nil
}

// collectImages resolves every img[src] under sel. When rewrite is set it is
// called for each image with its resolved resource.
func collectImages(sel *goquery.Selection, base *url.URL, rewrite func(*goquery.Selection, Resource)) ([]Resource, error) {
	var (
		resources []Resource
		seen      = make(map[string]bool)
		firstErr  error
	)

	sel.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
			return true
		}

		ref, err := sources.ParseReference(src)
		if err != nil {
			firstErr = fmt.Errorf("invalid image source %q: %w", src, err)
			return false
		}

		abs := base.ResolveReference(ref).String()
		res := Resource{URL: abs, Name: cache.Key(abs)}
		if rewrite != nil {
			rewrite(img, res)
		}
		if !seen[abs] {
			seen[abs] = true
			resources = append(resources, res)
		}
		return true
	})

	return resources, firstErr
}

// absolutizeLinks resolves every hyperlink without a scheme against base.
// Links with a scheme (https:, mailto:, ...) are left alone.
func absolutizeLinks(sel *goquery.Selection, base *url.URL) {
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		ref, err := sources.ParseReference(href)
		if err != nil || ref.Scheme != "" {
			return
		}
		a.SetAttr("href", base.ResolveReference(ref).String())
	})
}
