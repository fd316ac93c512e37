package services

import (
	"fmt"
	"log/slog"

	"github.com/kerbaras/mirrorbook/pkg/cache"
	"github.com/kerbaras/mirrorbook/pkg/config"
	"github.com/kerbaras/mirrorbook/pkg/data"
	"github.com/kerbaras/mirrorbook/pkg/integrations"
	"github.com/kerbaras/mirrorbook/pkg/utils"
)

// Controller builds the pipeline and its collaborators from configuration
type Controller struct {
	Pipeline *Pipeline
	Fetcher  *cache.Fetcher
	repo     *data.Repository
}

// NewController wires the fetcher, optional catalog and packager for cfg
func NewController(cfg *config.Config, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []cache.Option{cache.WithLogger(logger)}

	var repo *data.Repository
	if cfg.CatalogPath != "" {
		var err error
		repo, err = data.OpenRepository(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		opts = append(opts, cache.WithRecorder(repo))
	}

	fetcher := cache.NewFetcher(cfg.CacheDir, utils.NewAPI(cfg.HTTP.Timeout, cfg.HTTP.UserAgent), opts...)
	pipeline := NewPipeline(cfg, fetcher, NewPackager(cfg), logger)

	return &Controller{Pipeline: pipeline, Fetcher: fetcher, repo: repo}, nil
}

// NewPackager returns the packaging backend selected by cfg
func NewPackager(cfg *config.Config) integrations.Packager {
	if cfg.Package.Backend == config.BackendEPub {
		return integrations.NewEPubPackager()
	}
	return integrations.NewExecPackager()
}

// Close releases the catalog and the progress channel
func (c *Controller) Close() error {
	c.Pipeline.Close()
	if c.repo != nil {
		return c.repo.Close()
	}
	return nil
}
