package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized indicates GitHub rejected the access token. The scheduler
// renders it with a distinct user-visible message.
var ErrUnauthorized = errors.New("authorization rejected")

// State carries conditional fetch state between poll cycles. Owned by the
// scheduler and mutated only after a fresh revalidated fetch; it only ever
// advances, never rewinds.
type State struct {
	LastModified time.Time // zero until the first fresh response
}

// Result of a fetch. NotModified is the expected steady-state outcome when
// revalidation finds nothing new; Body is set otherwise.
type Result struct {
	Body        []byte
	NotModified bool
}

// Fetcher performs authenticated GitHub API requests with optional
// If-Modified-Since revalidation. It never retries; retry is the next
// scheduler tick.
type Fetcher struct {
	client    *http.Client
	token     string
	userAgent string
}

// requestTimeout bounds every request so a poll cycle cannot stall
const requestTimeout = 30 * time.Second

// NewFetcher creates a fetcher for the given access token
func NewFetcher(token string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: requestTimeout},
		token:     token,
		userAgent: "github-notifyd/1.0",
	}
}

// Fetch performs an authenticated GET. A non-nil st enables revalidation: the
// request carries If-Modified-Since when a timestamp is known, and a fresh
// response advances st.LastModified. Secondary fetches pass nil and never
// touch poll state.
func (f *Fetcher) Fetch(ctx context.Context, url string, st *State) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}

	// GitHub API v3 requires a User-Agent header
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Authorization", "token "+f.token)

	if st != nil && !st.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", st.LastModified.UTC().Format(http.TimeFormat))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK: // fall through to the body
	case http.StatusNotModified:
		return Result{NotModified: true}, nil
	case http.StatusUnauthorized:
		return Result{}, fmt.Errorf("fetch %s: %w", url, ErrUnauthorized)
	default:
		return Result{}, fmt.Errorf("fetch %s: unexpected status code %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response from %s: %w", url, err)
	}

	if st != nil {
		if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil && t.After(st.LastModified) {
			st.LastModified = t
		}
	}

	return Result{Body: body}, nil
}
