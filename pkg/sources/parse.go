package sources

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// ParseHTML decodes markup to UTF-8, honouring any <meta charset> or BOM,
// and parses it.
func ParseHTML(r io.Reader) (*goquery.Document, error) {
	decoded, err := charset.NewReader(r, "text/html")
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseHTMLBytes is ParseHTML over an in-memory document
func ParseHTMLBytes(markup []byte) (*goquery.Document, error) {
	return ParseHTML(bytes.NewReader(markup))
}

// ParseHTMLFile parses a cached page
func ParseHTMLFile(path string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ParseHTML(f)
}
