package data

import "time"

// CacheEntry records one URL the fetcher retrieved into the cache directory
type CacheEntry struct {
	URL         string
	Key         string
	Path        string
	Size        int64
	ContentType string
	FetchedAt   time.Time
}
