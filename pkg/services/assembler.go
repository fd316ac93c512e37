package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kerbaras/mirrorbook/pkg/config"
	"github.com/kerbaras/mirrorbook/pkg/integrations"
	"github.com/kerbaras/mirrorbook/pkg/transform"
)

// Fetcher is the content fetcher as seen by the pipeline
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Result describes a populated staging directory
type Result struct {
	StageDir  string
	Documents []string
	Metadata  string
	Cover     string
	Images    []string
	Titles    []string
}

// Assembler owns the staging directory
type Assembler struct {
	cfg         *config.Config
	fetcher     Fetcher
	transformer *transform.Transformer
	logger      *slog.Logger
	onPage      func(i, total int, page transform.Page)
}

// NewAssembler creates an Assembler
func NewAssembler(cfg *config.Config, fetcher Fetcher, transformer *transform.Transformer, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{cfg: cfg, fetcher: fetcher, transformer: transformer, logger: logger}
}

// Reverse returns pages in the opposite order. The index lists newest
// first, the book reads oldest first.
func Reverse(pages []transform.Page) []transform.Page {
	out := make([]transform.Page, len(pages))
	for i, p := range pages {
		out[len(pages)-1-i] = p
	}
	return out
}

// Assemble stages pages, given in index order, as the configured book
// layout: one shell-wrapped document per chapter, or all content regions
// unwrapped into a single document.
func (a *Assembler) Assemble(ctx context.Context, pages []transform.Page) (*Result, error) {
	stageDir := a.cfg.StageDir
	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	ordered := Reverse(pages)
	single := a.cfg.Book.Strategy == config.StrategySingle
	result := &Result{StageDir: stageDir}
	book := transform.NewDocument(a.cfg.Book.Title, a.cfg.Book.Notice)
	copied := make(map[string]bool)

	for i, page := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.onPage != nil {
			a.onPage(i, len(ordered), page)
		}

		markup, err := os.ReadFile(page.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read cached page %s: %w", page.URL, err)
		}

		fragment, err := a.transformer.Transform(page, markup)
		if err != nil {
			return nil, err
		}
		result.Titles = append(result.Titles, fragment.Title)

		for _, res := range fragment.Copies {
			if copied[res.Name] {
				continue
			}
			if err := a.copyResource(ctx, res); err != nil {
				return nil, err
			}
			copied[res.Name] = true
			result.Images = append(result.Images, filepath.Join(stageDir, res.Name))
		}

		if single {
			book.Append(fragment)
			continue
		}

		html, err := transform.Render(fragment.Title, fragment.HTML, a.cfg.Book.Notice)
		if err != nil {
			return nil, err
		}
		name := filepath.Join(stageDir, fmt.Sprintf("chapter%03d.html", i))
		if err := os.WriteFile(name, html, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		result.Documents = append(result.Documents, name)
	}

	if single {
		html, err := book.Bytes()
		if err != nil {
			return nil, err
		}
		name := filepath.Join(stageDir, a.cfg.Book.OutputName)
		if err := os.WriteFile(name, html, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		result.Documents = []string{name}
		a.logger.Info("Wrote book", slog.String("path", name), slog.Int("chapters", book.Len()))
	}

	if src := a.cfg.Book.MetadataFile; src != "" {
		dst, err := stageFile(src, stageDir)
		if err != nil {
			return nil, fmt.Errorf("failed to stage metadata: %w", err)
		}
		result.Metadata = dst
	}

	if src := a.cfg.Book.CoverFile; single && src != "" {
		info, err := integrations.InspectCover(src)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("Cover", slog.String("format", info.Format), slog.Int("width", info.Width), slog.Int("height", info.Height))

		dst, err := stageFile(src, stageDir)
		if err != nil {
			return nil, fmt.Errorf("failed to stage cover: %w", err)
		}
		result.Cover = dst
	}

	return result, nil
}

// Invocation computes the packaging command for result. Every staged path
// becomes relative to the staging directory; the artifact is left as
// configured.
func (a *Assembler) Invocation(result *Result) integrations.Invocation {
	inv := integrations.Invocation{
		Command:  a.cfg.Package.Command,
		Artifact: a.cfg.Package.Artifact,
	}
	if result.Metadata != "" {
		inv.Metadata = RelativeToStage(result.StageDir, result.Metadata)
	}
	if result.Cover != "" {
		inv.Cover = RelativeToStage(result.StageDir, result.Cover)
	}
	for _, doc := range result.Documents {
		inv.Documents = append(inv.Documents, RelativeToStage(result.StageDir, doc))
	}
	return inv
}

// RelativeToStage strips the staging directory prefix from path. Paths
// outside the staging directory are returned unchanged.
func RelativeToStage(stageDir, path string) string {
	rel, err := filepath.Rel(stageDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// copyResource copies the cached copy of res next to the output documents.
// The fetch is a cache hit after the mirror pass.
func (a *Assembler) copyResource(ctx context.Context, res transform.Resource) error {
	src, err := a.fetcher.Fetch(ctx, res.URL)
	if err != nil {
		return err
	}
	return copyFile(src, filepath.Join(a.cfg.StageDir, res.Name))
}

// stageFile copies src into dir under its base name. A src already
// staged at that name is left as it is.
func stageFile(src, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(src))
	if sameFile(src, dst) {
		return dst, nil
	}
	return dst, copyFile(src, dst)
}

func sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
