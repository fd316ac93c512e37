package cache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kerbaras/mirrorbook/pkg/data"
	"github.com/kerbaras/mirrorbook/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderFunc func(entry data.CacheEntry) error

func (f recorderFunc) RecordFetch(entry data.CacheEntry) error {
	return f(entry)
}

func newTestFetcher(t *testing.T, opts ...Option) *Fetcher {
	t.Helper()
	return NewFetcher(filepath.Join(t.TempDir(), "f"), utils.NewAPI(5*time.Second, "test"), opts...)
}

func TestFetchIsIdempotent(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("<html>hello</html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	ctx := context.Background()

	first, err := fetcher.Fetch(ctx, server.URL+"/page.html")
	require.NoError(t, err)
	second, err := fetcher.Fetch(ctx, server.URL+"/page.html")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), requests.Load())

	firstBytes, err := os.ReadFile(first)
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, firstBytes, secondBytes)
	assert.Equal(t, "<html>hello</html>", string(firstBytes))
}

func TestFetchSurvivesNewFetcherOnSameDirectory(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("body"))
	}))
	defer server.Close()

	dir := t.TempDir()
	api := utils.NewAPI(5*time.Second, "test")

	_, err := NewFetcher(dir, api).Fetch(context.Background(), server.URL+"/x")
	require.NoError(t, err)
	_, err = NewFetcher(dir, api).Fetch(context.Background(), server.URL+"/x")
	require.NoError(t, err)

	assert.Equal(t, int32(1), requests.Load(), "second run must reuse the cache")
}

func TestFetchUsesKeyAsFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	u := server.URL + "/img/a.png"
	path, err := fetcher.Fetch(context.Background(), u)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(fetcher.Dir(), Key(u)), path)
	assert.Equal(t, path, fetcher.Path(u))
	assert.True(t, fetcher.Cached(u))
}

func TestFetchNonSuccessIsNotCached(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	u := server.URL + "/missing"

	_, err := fetcher.Fetch(context.Background(), u)
	require.Error(t, err)

	var retrieval *RetrievalError
	require.True(t, errors.As(err, &retrieval))
	assert.Equal(t, http.StatusNotFound, retrieval.StatusCode)
	assert.Equal(t, u, retrieval.URL)
	assert.False(t, fetcher.Cached(u))

	_, err = fetcher.Fetch(context.Background(), u)
	require.Error(t, err)
	assert.Equal(t, int32(2), requests.Load(), "failures are not cached")
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	u := server.URL + "/x"
	server.Close()

	fetcher := newTestFetcher(t)
	_, err := fetcher.Fetch(context.Background(), u)

	var retrieval *RetrievalError
	require.True(t, errors.As(err, &retrieval))
	assert.Zero(t, retrieval.StatusCode)
	assert.False(t, fetcher.Cached(u))
}

func TestFetchMalformedURL(t *testing.T) {
	fetcher := newTestFetcher(t)

	for _, u := range []string{"relative/path.html", "http://[::1", "mailto:someone"} {
		_, err := fetcher.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, ErrMalformedURL, u)
	}
}

func TestFetchLeavesNoPartialFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	_, err := fetcher.Fetch(context.Background(), server.URL+"/a")
	require.NoError(t, err)

	entries, err := os.ReadDir(fetcher.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Key(server.URL+"/a"), entries[0].Name())
}

func TestFetchRecordsNetworkFetchesOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("12345"))
	}))
	defer server.Close()

	var recorded []data.CacheEntry
	fetcher := newTestFetcher(t, WithRecorder(recorderFunc(func(entry data.CacheEntry) error {
		recorded = append(recorded, entry)
		return nil
	})))

	u := server.URL + "/a.png"
	_, err := fetcher.Fetch(context.Background(), u)
	require.NoError(t, err)
	_, err = fetcher.Fetch(context.Background(), u)
	require.NoError(t, err)

	require.Len(t, recorded, 1)
	assert.Equal(t, u, recorded[0].URL)
	assert.Equal(t, Key(u), recorded[0].Key)
	assert.Equal(t, int64(5), recorded[0].Size)
	assert.Equal(t, "image/png", recorded[0].ContentType)
}

func TestFetchRecorderFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, WithRecorder(recorderFunc(func(data.CacheEntry) error {
		return errors.New("catalog offline")
	})))

	_, err := fetcher.Fetch(context.Background(), server.URL+"/x")
	assert.NoError(t, err)
}

func TestFetchWritesWorldReadableFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	path, err := fetcher.Fetch(context.Background(), server.URL+"/a")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}
