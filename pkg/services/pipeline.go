package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/kerbaras/mirrorbook/pkg/config"
	"github.com/kerbaras/mirrorbook/pkg/integrations"
	"github.com/kerbaras/mirrorbook/pkg/sources"
	"github.com/kerbaras/mirrorbook/pkg/transform"
)

// IndexResolver yields the chapter URLs in index order
type IndexResolver interface {
	ResolveIndex(ctx context.Context) ([]string, error)
}

// Pipeline runs fetch, transform, assemble and package as one sequential
// forward pass. The first failure aborts the run; whatever was already
// cached or staged stays on disk.
type Pipeline struct {
	cfg          *config.Config
	fetcher      Fetcher
	resolver     IndexResolver
	assembler    *Assembler
	packager     integrations.Packager
	logger       *slog.Logger
	out          io.Writer
	progressChan chan Progress
	closeOnce    sync.Once
}

// NewPipeline wires a pipeline for cfg around fetcher and packager
func NewPipeline(cfg *config.Config, fetcher Fetcher, packager integrations.Packager, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	site := sources.NewSelectorSite(cfg.Site)
	p := &Pipeline{
		cfg:          cfg,
		fetcher:      fetcher,
		resolver:     sources.NewResolver(cfg.IndexURL, fetcher, site),
		assembler:    NewAssembler(cfg, fetcher, transform.NewTransformer(site), logger),
		packager:     packager,
		logger:       logger,
		out:          os.Stdout,
		progressChan: make(chan Progress, 100),
	}
	p.assembler.onPage = func(i, total int, page transform.Page) {
		p.sendProgress(Progress{Stage: StageAssemble, URL: page.URL, Current: i + 1, Total: total, Status: "processing"})
	}
	return p
}

// SetOutput redirects the printed packaging command
func (p *Pipeline) SetOutput(w io.Writer) {
	p.out = w
}

// Assembler returns the pipeline's assembler
func (p *Pipeline) Assembler() *Assembler {
	return p.assembler
}

// GetProgressChannel returns the channel for receiving progress updates
func (p *Pipeline) GetProgressChannel() <-chan Progress {
	return p.progressChan
}

// Mirror resolves the index and caches every chapter page and every image
// those pages reference. Pages are returned in index order.
func (p *Pipeline) Mirror(ctx context.Context) ([]transform.Page, error) {
	p.sendProgress(Progress{Stage: StageIndex, URL: p.cfg.IndexURL, Status: "downloading"})

	urls, err := p.resolver.ResolveIndex(ctx)
	if err != nil {
		return nil, p.fail(StageIndex, err)
	}
	p.logger.Info("Resolved index", slog.Int("chapters", len(urls)))

	pages := make([]transform.Page, 0, len(urls))
	for i, u := range urls {
		p.sendProgress(Progress{Stage: StageMirror, URL: u, Current: i + 1, Total: len(urls), Status: "downloading"})

		path, err := p.fetcher.Fetch(ctx, u)
		if err != nil {
			return nil, p.fail(StageMirror, err)
		}

		markup, err := os.ReadFile(path)
		if err != nil {
			return nil, p.fail(StageMirror, fmt.Errorf("failed to read cached page %s: %w", u, err))
		}

		resources, err := transform.ExtractResources(u, markup)
		if err != nil {
			return nil, p.fail(StageMirror, err)
		}
		for _, res := range resources {
			if _, err := p.fetcher.Fetch(ctx, res.URL); err != nil {
				return nil, p.fail(StageMirror, err)
			}
		}

		pages = append(pages, transform.Page{URL: u, Path: path})
	}

	return pages, nil
}

// Assemble stages the mirrored pages
func (p *Pipeline) Assemble(ctx context.Context, pages []transform.Page) (*Result, error) {
	result, err := p.assembler.Assemble(ctx, pages)
	if err != nil {
		return nil, p.fail(StageAssemble, err)
	}
	return result, nil
}

// Package hands the staging directory to the packager. In strict mode a
// packaging failure is fatal. Otherwise the external tool is not run and
// its command is printed for manual execution; the in-process backend
// still runs but its failure is only logged.
func (p *Pipeline) Package(ctx context.Context, result *Result) (integrations.Invocation, error) {
	inv := p.assembler.Invocation(result)
	p.sendProgress(Progress{Stage: StagePackage, URL: p.cfg.Package.Artifact, Status: "processing"})

	switch {
	case p.cfg.Package.Strict:
		if err := p.packager.Package(ctx, result.StageDir, inv); err != nil {
			return inv, p.fail(StagePackage, err)
		}
	case p.cfg.Package.Backend == config.BackendEPub:
		if err := p.packager.Package(ctx, result.StageDir, inv); err != nil {
			p.logger.Warn("Packaging failed", slog.String("error", err.Error()))
		}
	default:
		fmt.Fprintf(p.out, "cd %s && %s\n", result.StageDir, inv.String())
	}
	return inv, nil
}

// Build runs the whole pipeline
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	pages, err := p.Mirror(ctx)
	if err != nil {
		return nil, err
	}

	result, err := p.Assemble(ctx, pages)
	if err != nil {
		return nil, err
	}

	if _, err := p.Package(ctx, result); err != nil {
		return nil, err
	}

	p.sendProgress(Progress{Stage: StagePackage, URL: p.cfg.Package.Artifact, Current: len(pages), Total: len(pages), Status: "complete"})
	return result, nil
}

func (p *Pipeline) fail(stage string, err error) error {
	p.sendProgress(Progress{Stage: stage, Status: "error", Error: err})
	return err
}

// sendProgress sends a progress update (non-blocking)
func (p *Pipeline) sendProgress(progress Progress) {
	select {
	case p.progressChan <- progress:
	default:
		// Channel full, skip this update
	}
}

// Close closes the progress channel
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() { close(p.progressChan) })
}
