package script

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher retrieves external data on behalf of Writer scripts.
type Fetcher interface {
	Fetch(ctx context.Context, url, method string) (string, error)
}

const defaultMaxFetchBody = 4 << 20 // 4 MiB

// HTTPFetcher fetches over HTTP with a bounded client and a capped
// response size.
type HTTPFetcher struct {
	Client  *http.Client
	MaxBody int64
}

// NewHTTPFetcher returns a fetcher with a 30-second request timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client:  &http.Client{Timeout: 30 * time.Second},
		MaxBody: defaultMaxFetchBody,
	}
}

// Fetch performs the request and returns the response body as text.
// Non-2xx statuses are errors: the capability layer folds them into
// the { error } result shape scripts expect.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, method string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	limit := f.MaxBody
	if limit <= 0 {
		limit = defaultMaxFetchBody
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("read response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	return string(data), nil
}
