package utils

import (
	"context"
	"net/http"
	"time"
)

// API issues plain GET requests with a fixed user agent
type API struct {
	client    *http.Client
	userAgent string
}

// NewAPI creates an API whose requests time out after timeout
func NewAPI(timeout time.Duration, userAgent string) *API {
	return &API{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Get performs a GET request. The caller owns the response body.
func (a *API) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	req.Header.Set("Accept", "*/*")
	return a.client.Do(req)
}
