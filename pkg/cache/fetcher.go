// Package cache retrieves URLs into a persistent directory keyed by an
// encoding of the URL. A URL whose file already exists is never requested
// again, across runs included; cached files are trusted forever.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kerbaras/mirrorbook/pkg/data"
	"github.com/kerbaras/mirrorbook/pkg/utils"
)

// ErrMalformedURL is wrapped by RetrievalError for URLs that cannot be requested
var ErrMalformedURL = errors.New("malformed url")

// RetrievalError reports a failed fetch. It is never retried.
type RetrievalError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieving %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("retrieving %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Recorder is notified after every network fetch
type Recorder interface {
	RecordFetch(entry data.CacheEntry) error
}

// Fetcher owns the cache directory
type Fetcher struct {
	dir      string
	api      *utils.API
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithRecorder attaches a catalog recorder
func WithRecorder(r Recorder) Option {
	return func(f *Fetcher) { f.recorder = r }
}

// WithLogger sets the logger used for progress notices
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// NewFetcher creates a Fetcher storing into dir
func NewFetcher(dir string, api *utils.API, opts ...Option) *Fetcher {
	f := &Fetcher{
		dir:    dir,
		api:    api,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dir returns the cache directory
func (f *Fetcher) Dir() string {
	return f.dir
}

// Path returns where rawURL is, or would be, cached
func (f *Fetcher) Path(rawURL string) string {
	return filepath.Join(f.dir, Key(rawURL))
}

// Cached reports whether rawURL is already in the cache
func (f *Fetcher) Cached(rawURL string) bool {
	info, err := os.Stat(f.Path(rawURL))
	return err == nil && info.Mode().IsRegular()
}

// Fetch returns the local path of rawURL, requesting it only when the
// cache has no file for it yet.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := checkURL(rawURL); err != nil {
		return "", err
	}

	path := f.Path(rawURL)
	if f.Cached(rawURL) {
		f.logger.Debug("Cache hit", slog.String("url", rawURL), slog.String("path", path))
		return path, nil
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	f.logger.Info("Requesting", slog.String("url", rawURL))
	resp, err := f.api.Get(ctx, rawURL)
	if err != nil {
		return "", &RetrievalError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RetrievalError{URL: rawURL, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	size, err := writeAtomic(f.dir, path, resp.Body)
	if err != nil {
		return "", &RetrievalError{URL: rawURL, Err: err}
	}

	if f.recorder != nil {
		entry := data.CacheEntry{
			URL:         rawURL,
			Key:         Key(rawURL),
			Path:        path,
			Size:        size,
			ContentType: resp.Header.Get("Content-Type"),
			FetchedAt:   time.Now().UTC(),
		}
		if err := f.recorder.RecordFetch(entry); err != nil {
			f.logger.Warn("Failed to record fetch", slog.String("url", rawURL), slog.String("error", err.Error()))
		}
	}

	return path, nil
}

// checkURL rejects URLs that cannot be requested
func checkURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &RetrievalError{URL: rawURL, Err: fmt.Errorf("%w: %v", ErrMalformedURL, err)}
	}
	if u.Scheme == "" || u.Host == "" {
		return &RetrievalError{URL: rawURL, Err: fmt.Errorf("%w: scheme and host are required", ErrMalformedURL)}
	}
	return nil
}

// writeAtomic streams body into a temp file next to path and renames it
// into place once complete.
func writeAtomic(dir, path string, body io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to set cache file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to move into cache: %w", err)
	}
	return size, nil
}
