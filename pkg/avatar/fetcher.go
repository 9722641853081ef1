package avatar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"igfollow/pkg/config"
	"igfollow/pkg/errors"
	"igfollow/pkg/logger"
	"igfollow/pkg/ratelimit"
	"igfollow/pkg/retry"
	"igfollow/pkg/snapshot"
	"igfollow/pkg/storage"
)

// Fetcher downloads avatar images from the third-party avatar host. Requests
// go through a rate limiter so cache warm-ups stay polite, and transient
// failures are retried.
type Fetcher struct {
	httpClient *http.Client
	baseURL    string
	limiter    ratelimit.Limiter
	retryCfg   *retry.Config
	cache      *storage.Manager
	logger     logger.Logger
}

// NewFetcher creates a fetcher for the configured avatar host. The cache
// manager may be nil when callers only need bytes.
func NewFetcher(cfg *config.AvatarConfig, limiter ratelimit.Limiter, cache *storage.Manager, log logger.Logger) *Fetcher {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		limiter:    limiter,
		retryCfg: &retry.Config{
			MaxAttempts: 3,
			Backoff:     retry.DefaultExponentialBackoff(),
			RetryIf:     retry.DefaultRetryIf,
			Context:     context.Background(),
			Logger:      log,
		},
		cache:  cache,
		logger: log,
	}
}

// URL returns the avatar URL for a handle
func (f *Fetcher) URL(handle string) string {
	return ProfileURL(f.baseURL, snapshot.NormalizeUsername(handle))
}

// Fetch downloads the avatar image for a handle
func (f *Fetcher) Fetch(ctx context.Context, handle string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("rate limit wait cancelled: %v", err), 0)
	}

	url := f.URL(handle)

	return retry.DoWithResult(func() ([]byte, error) {
		return f.fetchOnce(ctx, url)
	}, f.retryCfg)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, fmt.Sprintf("failed to create request: %v", err), 0)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("avatar request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrorTypeNotFound, "no avatar for handle", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.New(errors.ErrorTypeRateLimit, "avatar host rate limit", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, errors.New(errors.ErrorTypeServerError, "avatar host error", resp.StatusCode)
	default:
		return nil, errors.New(errors.ErrorTypeUnknown, fmt.Sprintf("unexpected status %d", resp.StatusCode), resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("failed to read avatar body: %v", err), 0)
	}

	return data, nil
}

// Warm downloads the avatar for a handle into the cache directory, skipping
// handles that are already cached. Returns the cached file path.
func (f *Fetcher) Warm(ctx context.Context, handle string) (string, error) {
	if f.cache == nil {
		return "", fmt.Errorf("no cache directory configured")
	}

	filename := snapshot.NormalizeUsername(handle) + ".jpg"
	if f.cache.Exists(filename) {
		f.logger.DebugWithFields("Avatar already cached", map[string]interface{}{"handle": handle})
		return "", nil
	}

	data, err := f.Fetch(ctx, handle)
	if err != nil {
		return "", err
	}

	path, err := f.cache.Save(bytes.NewReader(data), filename)
	if err != nil {
		return "", fmt.Errorf("failed to cache avatar: %w", err)
	}

	return path, nil
}

// LoadSlot points a slot at the handle's avatar and loads it. A failed load
// triggers the slot's fallback handlers.
func (f *Fetcher) LoadSlot(ctx context.Context, slot *Slot, handle string) error {
	slot.SetSource(f.URL(handle))

	if _, err := f.Fetch(ctx, handle); err != nil {
		slot.FailLoad()
		return err
	}

	return nil
}
