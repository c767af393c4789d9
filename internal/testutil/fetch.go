package testutil

import (
	"context"
	"fmt"
	"sync"
)

// FetchCall records one fetchExternal invocation.
type FetchCall struct {
	URL    string
	Method string
}

// CannedFetcher serves scripted responses for Writer fetch tests and
// records every call it receives.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CannedFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]string
	calls     []FetchCall
}

// NewCannedFetcher creates an empty fetcher. Fetching a URL with no
// canned response fails, so tests notice unexpected fetches.
func NewCannedFetcher() *CannedFetcher {
	return &CannedFetcher{
		responses: make(map[string]string),
		failures:  make(map[string]string),
	}
}

// Respond cans a successful response body for a URL.
func (f *CannedFetcher) Respond(url, body string) *CannedFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = body
	return f
}

// Fail cans a fetch failure for a URL.
func (f *CannedFetcher) Fail(url, message string) *CannedFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[url] = message
	return f
}

// Fetch returns the canned response for url, recording the call.
func (f *CannedFetcher) Fetch(_ context.Context, url, method string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, FetchCall{URL: url, Method: method})

	if msg, ok := f.failures[url]; ok {
		return "", fmt.Errorf("%s", msg)
	}
	if body, ok := f.responses[url]; ok {
		return body, nil
	}
	return "", fmt.Errorf("no canned response for %s", url)
}

// Calls returns a copy of the recorded calls in order.
func (f *CannedFetcher) Calls() []FetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FetchCall, len(f.calls))
	copy(out, f.calls)
	return out
}
