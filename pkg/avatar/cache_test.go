package avatar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetOrFetch(t *testing.T) {
	t.Run("download and reuse", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.Write([]byte("png-bytes"))
		}))
		defer server.Close()

		cache := New(t.TempDir())
		path, ok := cache.GetOrFetch(context.Background(), 42, server.URL)
		require.True(t, ok)
		assert.Equal(t, "42.png", filepath.Base(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))

		// second lookup is a pure cache hit
		path2, ok := cache.GetOrFetch(context.Background(), 42, server.URL)
		require.True(t, ok)
		assert.Equal(t, path, path2)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "re-fetching a cached id must not hit the network")
	})

	t.Run("existing file is trusted without network", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "7.png"), []byte("old"), 0o600))

		cache := New(dir)
		path, ok := cache.GetOrFetch(context.Background(), 7, "http://127.0.0.1:0/unreachable")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, "7.png"), path)
	})

	t.Run("failure leaves no partial file and is not retried", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		dir := t.TempDir()
		cache := New(dir)
		_, ok := cache.GetOrFetch(context.Background(), 13, server.URL)
		assert.False(t, ok)
		assert.NoFileExists(t, filepath.Join(dir, "13.png"))

		// one attempt per id per process lifetime
		_, ok = cache.GetOrFetch(context.Background(), 13, server.URL)
		assert.False(t, ok)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("unreachable host", func(t *testing.T) {
		cache := New(t.TempDir())
		_, ok := cache.GetOrFetch(context.Background(), 99, "http://127.0.0.1:0/avatar.png")
		assert.False(t, ok)
	})
}
