package data

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	url          VARCHAR PRIMARY KEY,
	key          VARCHAR NOT NULL,
	path         VARCHAR NOT NULL,
	size         BIGINT,
	content_type VARCHAR,
	fetched_at   TIMESTAMP
)`

// InitDuckDB opens the catalog database at path, creating the parent
// directory and schema if needed.
func InitDuckDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Repository is the fetch catalog. It is informational: the cache directory
// itself stays the only source of truth for whether a URL was fetched.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an opened catalog database
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// OpenRepository is InitDuckDB followed by NewRepository
func OpenRepository(path string) (*Repository, error) {
	db, err := InitDuckDB(path)
	if err != nil {
		return nil, err
	}
	return NewRepository(db), nil
}

// Close closes the underlying database
func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveEntry inserts or replaces the entry for entry.URL
func (r *Repository) SaveEntry(entry *CacheEntry) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO cache_entries (url, key, path, size, content_type, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.URL, entry.Key, entry.Path, entry.Size, entry.ContentType, entry.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

// RecordFetch lets the repository act as the fetcher's recorder
func (r *Repository) RecordFetch(entry CacheEntry) error {
	return r.SaveEntry(&entry)
}

// GetEntry returns the entry for url, or nil if it was never recorded
func (r *Repository) GetEntry(url string) (*CacheEntry, error) {
	row := r.db.QueryRow(`
		SELECT url, key, path, size, content_type, fetched_at
		FROM cache_entries WHERE url = ?`, url)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns every recorded entry ordered by fetch time
func (r *Repository) ListEntries() ([]*CacheEntry, error) {
	rows, err := r.db.Query(`
		SELECT url, key, path, size, content_type, fetched_at
		FROM cache_entries ORDER BY fetched_at, url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []*CacheEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*CacheEntry, error) {
	var (
		entry       CacheEntry
		size        sql.NullInt64
		contentType sql.NullString
		fetchedAt   sql.NullTime
	)
	if err := s.Scan(&entry.URL, &entry.Key, &entry.Path, &size, &contentType, &fetchedAt); err != nil {
		return nil, err
	}
	entry.Size = size.Int64
	entry.ContentType = contentType.String
	entry.FetchedAt = fetchedAt.Time
	return &entry, nil
}
