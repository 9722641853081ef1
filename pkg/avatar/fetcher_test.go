package avatar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfollow/pkg/config"
	"igfollow/pkg/errors"
	"igfollow/pkg/logger"
	"igfollow/pkg/storage"
)

func testFetcher(t *testing.T, baseURL string, cache *storage.Manager) *Fetcher {
	t.Helper()
	return NewFetcher(&config.AvatarConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, nil, cache, logger.NewNopLogger())
}

func TestFetchReturnsImageBytes(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	fetcher := testFetcher(t, server.URL, nil)

	data, err := fetcher.Fetch(context.Background(), "@JaneDoe")
	require.NoError(t, err)

	assert.Equal(t, []byte("image-bytes"), data)
	assert.Equal(t, "/janedoe", requestedPath, "handle should be normalized before building the URL")
}

func TestFetchMissingAvatarIsNotRetried(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := testFetcher(t, server.URL, nil)

	_, err := fetcher.Fetch(context.Background(), "nobody")
	require.Error(t, err)

	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeNotFound, apiErr.Type)
	assert.Equal(t, 1, requests, "404 is permanent and must not be retried")
}

func TestWarmCachesAndSkipsDuplicates(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	cache, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	fetcher := testFetcher(t, server.URL, cache)

	path, err := fetcher.Warm(context.Background(), "janedoe")
	require.NoError(t, err)
	require.NotEmpty(t, path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), content)

	// Second warm-up must not hit the network
	path, err = fetcher.Warm(context.Background(), "janedoe")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, 1, requests)
}

func TestLoadSlotFailureTriggersFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := testFetcher(t, server.URL, nil)
	binder := NewBinder(logger.NewNopLogger())

	slot := NewSlot()
	slot.SetSource("placeholder")
	binder.Bind(slot)

	err := fetcher.LoadSlot(context.Background(), slot, "nobody")
	require.Error(t, err)

	assert.True(t, slot.Fallback())
	assert.Equal(t, server.URL+"/nobody", slot.Source())
}
