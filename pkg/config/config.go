// Package config holds the immutable settings every mirrorbook component is
// built from. All source-site specifics live here so fixtures can point the
// pipeline at a local server instead of the live site.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Assembly strategies.
const (
	StrategySingle   = "single"
	StrategyChapters = "chapters"
)

// Packaging backends.
const (
	BackendExec = "exec"
	BackendEPub = "epub"
)

// Config is the complete mirrorbook configuration
type Config struct {
	IndexURL    string        `yaml:"index_url"`
	CacheDir    string        `yaml:"cache_dir"`
	StageDir    string        `yaml:"stage_dir"`
	CatalogPath string        `yaml:"catalog_path"`
	Site        SiteConfig    `yaml:"site"`
	Book        BookConfig    `yaml:"book"`
	Package     PackageConfig `yaml:"package"`
	HTTP        HTTPConfig    `yaml:"http"`
}

// SiteConfig describes the markup structure of the source site
type SiteConfig struct {
	// TOCSelector selects the chapter anchors on the index page
	TOCSelector string `yaml:"toc_selector"`
	// ContentSelector selects the article body of a chapter page
	ContentSelector string `yaml:"content_selector"`
	// TitlePrefix is stripped from every page <title>
	TitlePrefix string `yaml:"title_prefix"`
	// TrimHead and TrimTail drop boilerplate anchors at the ToC boundaries
	TrimHead int `yaml:"trim_head"`
	TrimTail int `yaml:"trim_tail"`
}

// BookConfig configures the staged output
type BookConfig struct {
	Title        string `yaml:"title"`
	Notice       string `yaml:"notice"`
	MetadataFile string `yaml:"metadata_file"`
	CoverFile    string `yaml:"cover_file"`
	OutputName   string `yaml:"output_name"`
	Strategy     string `yaml:"strategy"`
}

// PackageConfig configures the e-book packaging step
type PackageConfig struct {
	Command  string `yaml:"command"`
	Artifact string `yaml:"artifact"`
	Backend  string `yaml:"backend"`
	// Strict invokes the packager and fails on a non-zero exit. When false
	// the command is only printed for manual execution.
	Strict bool `yaml:"strict"`
}

// HTTPConfig configures the fetch client
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// DefaultConfig returns the configuration for research.swtch.com
func DefaultConfig() *Config {
	return &Config{
		IndexURL: "https://research.swtch.com/",
		CacheDir: "./f",
		StageDir: "./p",
		Site: SiteConfig{
			TOCSelector:     "ul.toc li a",
			ContentSelector: ".main",
			TitlePrefix:     "research!rsc: ",
			TrimHead:        1,
			TrimTail:        1,
		},
		Book: BookConfig{
			Title:        "research!rsc",
			Notice:       "Copyright © Russ Cox. All rights reserved.",
			MetadataFile: "title.txt",
			CoverFile:    "cover.png",
			OutputName:   "book.html",
			Strategy:     StrategySingle,
		},
		Package: PackageConfig{
			Command:  "pandoc",
			Artifact: "rsc.epub",
			Backend:  BackendExec,
			Strict:   true,
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "mirrorbook/1.0",
		},
	}
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	u, err := url.Parse(c.IndexURL)
	if err != nil {
		return fmt.Errorf("invalid index_url %q: %w", c.IndexURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid index_url %q: scheme and host are required", c.IndexURL)
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir is required")
	}
	if c.StageDir == "" {
		return fmt.Errorf("stage_dir is required")
	}
	if filepath.Clean(c.CacheDir) == filepath.Clean(c.StageDir) {
		return fmt.Errorf("cache_dir and stage_dir must differ")
	}
	if c.Site.TOCSelector == "" || c.Site.ContentSelector == "" {
		return fmt.Errorf("site selectors are required")
	}
	if c.Site.TrimHead < 0 || c.Site.TrimTail < 0 {
		return fmt.Errorf("site trims must not be negative")
	}
	switch c.Book.Strategy {
	case StrategySingle, StrategyChapters:
	default:
		return fmt.Errorf("unknown book.strategy %q (want %s or %s)", c.Book.Strategy, StrategySingle, StrategyChapters)
	}
	if c.Book.OutputName == "" {
		return fmt.Errorf("book.output_name is required")
	}
	switch c.Package.Backend {
	case BackendExec:
		if c.Package.Command == "" {
			return fmt.Errorf("package.command is required for the exec backend")
		}
	case BackendEPub:
	default:
		return fmt.Errorf("unknown package.backend %q (want %s or %s)", c.Package.Backend, BackendExec, BackendEPub)
	}
	if c.Package.Artifact == "" {
		return fmt.Errorf("package.artifact is required")
	}
	return nil
}

// LoadFromFile reads a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// SaveToFile writes the configuration as YAML
func (c *Config) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, raw, 0644)
}
