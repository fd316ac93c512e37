package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kerbaras/mirrorbook/pkg/cache"
	"github.com/kerbaras/mirrorbook/pkg/config"
	"github.com/kerbaras/mirrorbook/pkg/integrations"
	"github.com/kerbaras/mirrorbook/pkg/utils"
)

// fixtureSite serves a three-chapter research!rsc lookalike. The index
// lists chapters newest first between an "about" and a "subscribe" link.
type fixtureSite struct {
	server   *httptest.Server
	mu       sync.Mutex
	requests map[string]int
	broken   map[string]bool
}

var fixtureChapters = []struct {
	path  string
	title string
	image string
}{
	{"/2026/gamma", "Gamma", "img/gamma.png"},
	{"/2025/beta", "Beta", "img/beta.png"},
	{"/2024/alpha", "Alpha", "img/alpha.png"},
}

func newFixtureSite(t *testing.T) *fixtureSite {
	t.Helper()

	site := &fixtureSite{requests: make(map[string]int), broken: make(map[string]bool)}
	pngData := createTestPNG()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		site.count(r.URL.Path)
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		var toc bytes.Buffer
		toc.WriteString(`<li><a href="/about">About</a></li>`)
		for _, ch := range fixtureChapters {
			fmt.Fprintf(&toc, `<li><a href="%s">%s</a></li>`, ch.path, ch.title)
		}
		toc.WriteString(`<li><a href="/feed.atom">Subscribe</a></li>`)
		fmt.Fprintf(w, `<html><head><title>research!rsc</title></head><body><ul class="toc">%s</ul></body></html>`, toc.String())
	})
	for _, ch := range fixtureChapters {
		ch := ch
		mux.HandleFunc(ch.path, func(w http.ResponseWriter, r *http.Request) {
			site.count(r.URL.Path)
			if site.isBroken(r.URL.Path) {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprintf(w, `<html><head><title>research!rsc: %s</title></head><body>
<div class="nav"><a href="/">home</a></div>
<div class="main"><h1>%s</h1><p>region-%s</p><img src="%s"><a href="/2024/alpha">first</a></div>
</body></html>`, ch.title, ch.title, ch.title, ch.image)
		})
		imagePath := filepath.Dir(ch.path) + "/" + ch.image
		mux.HandleFunc(imagePath, func(w http.ResponseWriter, r *http.Request) {
			site.count(r.URL.Path)
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngData)
		})
	}

	site.server = httptest.NewServer(mux)
	t.Cleanup(site.server.Close)
	return site
}

func (s *fixtureSite) count(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[path]++
}

func (s *fixtureSite) isBroken(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broken[path]
}

func (s *fixtureSite) breakPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken[path] = true
}

func (s *fixtureSite) totalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.requests {
		total += n
	}
	return total
}

func (s *fixtureSite) url(path string) string {
	return s.server.URL + path
}

func createTestPNG() []byte {
	var buf bytes.Buffer
	png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	return buf.Bytes()
}

// testConfig points the pipeline at site with fresh directories
func testConfig(t *testing.T, site *fixtureSite, strategy string) *config.Config {
	t.Helper()

	root := t.TempDir()
	metadata := filepath.Join(root, "title.txt")
	if err := os.WriteFile(metadata, []byte("% research!rsc\n% Russ Cox\n"), 0644); err != nil {
		t.Fatalf("Failed to write metadata: %v", err)
	}
	cover := filepath.Join(root, "cover.png")
	if err := os.WriteFile(cover, createTestPNG(), 0644); err != nil {
		t.Fatalf("Failed to write cover: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.IndexURL = site.url("/")
	cfg.CacheDir = filepath.Join(root, "f")
	cfg.StageDir = filepath.Join(root, "p")
	cfg.Book.MetadataFile = metadata
	cfg.Book.CoverFile = cover
	cfg.Book.Strategy = strategy
	return cfg
}

type mockPackager struct {
	calls     []integrations.Invocation
	stageDirs []string
	err       error
}

func (m *mockPackager) Package(_ context.Context, stageDir string, inv integrations.Invocation) error {
	m.calls = append(m.calls, inv)
	m.stageDirs = append(m.stageDirs, stageDir)
	return m.err
}

func newTestPipeline(cfg *config.Config, packager integrations.Packager) (*Pipeline, *cache.Fetcher) {
	fetcher := cache.NewFetcher(cfg.CacheDir, utils.NewAPI(5*time.Second, "test"))
	return NewPipeline(cfg, fetcher, packager, nil), fetcher
}
