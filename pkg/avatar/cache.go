// Package avatar keeps user avatar images on disk for use as notification
// icons, keyed by GitHub user id.
package avatar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pkgz/lgr"
)

// Cache is a best-effort on-disk image store. Avatars are treated as
// immutable per user id: a file already on disk is a hit without any
// staleness check, and each id is downloaded at most once per process
// lifetime even if the download fails. Not safe for concurrent use; the
// poll cycle runs on a single goroutine.
type Cache struct {
	dir       string
	client    *http.Client
	attempted map[int64]bool
}

// New creates a cache storing images under dir as <id>.png
func New(dir string) *Cache {
	return &Cache{
		dir:       dir,
		client:    &http.Client{Timeout: 30 * time.Second},
		attempted: map[int64]bool{},
	}
}

// GetOrFetch returns the local path for the user's avatar. The second return
// is false when no image is available; the caller shows the notification
// without an icon.
func (c *Cache) GetOrFetch(ctx context.Context, id int64, url string) (string, bool) {
	path := filepath.Join(c.dir, fmt.Sprintf("%d.png", id))
	if _, err := os.Stat(path); err == nil {
		return path, true
	}
	if c.attempted[id] {
		return "", false
	}
	c.attempted[id] = true

	lgr.Printf("[INFO] downloading avatar for user %d", id)
	if err := c.download(ctx, url, path); err != nil {
		lgr.Printf("[WARN] cannot prepare avatar for user %d: %v", id, err)
		return "", false
	}
	return path, true
}

// download writes the image to path, removing any partial file on failure
func (c *Cache) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	fh, err := os.Create(path) //nolint:gosec // path is derived from a numeric id
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(fh, resp.Body); err != nil {
		_ = fh.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := fh.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
