package integrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-epub"
	"github.com/kerbaras/mirrorbook/pkg/sources"
)

// EPubPackager builds the EPUB in-process instead of calling pandoc
type EPubPackager struct{}

// NewEPubPackager creates an EPubPackager
func NewEPubPackager() *EPubPackager {
	return &EPubPackager{}
}

// Package compiles the staged documents of inv into inv.Artifact, one
// section per document. A relative artifact lands relative to stageDir,
// matching what the external tool would do.
func (p *EPubPackager) Package(ctx context.Context, stageDir string, inv Invocation) error {
	if len(inv.Documents) == 0 {
		return &PackagingError{Command: "epub", Err: fmt.Errorf("no documents to package")}
	}

	e, err := p.build(ctx, stageDir, inv)
	if err != nil {
		return &PackagingError{Command: "epub", Err: err}
	}

	outputPath := inv.Artifact
	if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(stageDir, outputPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return &PackagingError{Command: "epub", Err: fmt.Errorf("failed to create output directory: %w", err)}
	}
	if err := e.Write(outputPath); err != nil {
		return &PackagingError{Command: "epub", Err: fmt.Errorf("failed to write EPub: %w", err)}
	}
	return nil
}

func (p *EPubPackager) build(ctx context.Context, stageDir string, inv Invocation) (*epub.Epub, error) {
	meta := &Metadata{}
	if inv.Metadata != "" {
		var err error
		meta, err = ReadMetadata(filepath.Join(stageDir, inv.Metadata))
		if err != nil {
			return nil, err
		}
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSuffix(filepath.Base(inv.Artifact), filepath.Ext(inv.Artifact))
	}

	e, err := epub.NewEpub(meta.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to create EPub: %w", err)
	}
	if meta.Author != "" {
		e.SetAuthor(meta.Author)
	}
	if meta.Description != "" {
		e.SetDescription(meta.Description)
	}
	lang := meta.Language
	if lang == "" {
		lang = "en"
	}
	e.SetLang(lang)

	if inv.Cover != "" {
		if err := p.addCover(e, filepath.Join(stageDir, inv.Cover)); err != nil {
			return nil, err
		}
	}

	images := make(map[string]string)
	for _, name := range inv.Documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.addDocument(e, stageDir, name, images); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", name, err)
		}
	}
	return e, nil
}

func (p *EPubPackager) addCover(e *epub.Epub, path string) error {
	tmpDir, err := os.MkdirTemp("", "mirrorbook-cover-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	cover, err := NormalizeCover(path, tmpDir)
	if err != nil {
		return err
	}

	internal, err := e.AddImage(cover, "cover"+filepath.Ext(cover))
	if err != nil {
		return fmt.Errorf("failed to add cover: %w", err)
	}
	if err := e.SetCover(internal, ""); err != nil {
		return fmt.Errorf("failed to set cover: %w", err)
	}
	return nil
}

// addDocument adds one staged HTML document as a section, pointing its
// images at their EPUB-internal copies.
func (p *EPubPackager) addDocument(e *epub.Epub, stageDir, name string, images map[string]string) error {
	doc, err := sources.ParseHTMLFile(filepath.Join(stageDir, name))
	if err != nil {
		return err
	}

	var imgErr error
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := img.AttrOr("src", "")
		if strings.Contains(src, ":") || strings.Contains(src, "/") {
			return true
		}
		internal, ok := images[src]
		if !ok {
			internal, err = e.AddImage(filepath.Join(stageDir, src), src)
			if err != nil {
				imgErr = fmt.Errorf("failed to add image %s: %w", src, err)
				return false
			}
			images[src] = internal
		}
		img.SetAttr("src", internal)
		return true
	})
	if imgErr != nil {
		return imgErr
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return fmt.Errorf("failed to render body: %w", err)
	}

	title := strings.TrimSpace(doc.Find("head title").First().Text())
	if title == "" {
		title = name
	}

	if _, err := e.AddSection(body, title, "", ""); err != nil {
		return fmt.Errorf("failed to add section: %w", err)
	}
	return nil
}
