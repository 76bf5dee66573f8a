package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// FetchError describes why a single fetch yielded no page. The URL is still
// marked visited by the caller so the frontier does not loop on it.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves pages over HTTP with a per-fetch timeout, a counting
// semaphore bounding in-flight requests, and an origin-wide rate limit.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
	sem       chan struct{}
}

// NewFetcher returns a fetcher allowing at most concurrency in-flight
// requests and reqPerSec requests per second against the origin.
func NewFetcher(concurrency int, timeout time.Duration, reqPerSec float64, userAgent string) *Fetcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if reqPerSec <= 0 {
		reqPerSec = 10
	}
	return &Fetcher{
		client:    &http.Client{},
		timeout:   timeout,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(reqPerSec), concurrency),
		sem:       make(chan struct{}, concurrency),
	}
}

// Fetch retrieves rawURL and returns the response body. A timeout aborts
// this fetch only; the error is always a *FetchError carrying the reason.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	select {
	case f.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, &FetchError{URL: rawURL, Err: ctx.Err()}
	}
	defer func() { <-f.sem }()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	return body, nil
}
