// Package fetch downloads the raster images referenced by a scene.
//
// [HTTPFetcher] resolves http and https URLs with a bounded-time GET and a
// response size limit, and decodes data: URLs locally (Fabric exports
// embedded images that way). Successful downloads can be kept in a
// [cache.Cache] so repeated conversions of the same scene do not hit the
// network again.
//
// Every failure is reported as a FETCH_ERROR. Nothing is retried.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vincent-petithory/dataurl"

	"github.com/matzehuels/fabricpdf/pkg/cache"
	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/observability"
)

const (
	// DefaultTimeout bounds a single image download.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxBytes is the largest image body accepted.
	DefaultMaxBytes = 20 << 20

	// DefaultCacheTTL is how long downloaded images stay cached.
	DefaultCacheTTL = 24 * time.Hour

	cacheNamespace = "image"
	userAgent      = "fabricpdf"
)

// Fetcher retrieves the bytes behind an image URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Options configures an [HTTPFetcher]. Zero values select the defaults.
type Options struct {
	Timeout  time.Duration
	MaxBytes int64

	// Cache stores downloaded bytes keyed by URL. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	// Client overrides the HTTP client. Its Timeout is left untouched.
	Client *http.Client
	Logger *log.Logger
}

// HTTPFetcher implements Fetcher over net/http. It is safe for concurrent use.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *log.Logger
}

// New creates an HTTPFetcher from opts.
func New(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPFetcher{
		client:   client,
		maxBytes: opts.MaxBytes,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   opts.Logger,
	}
}

// Fetch returns the bytes behind rawURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetch, err, "fetch %s", describe(rawURL))
	}

	if strings.HasPrefix(rawURL, "data:") {
		du, err := dataurl.DecodeString(rawURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFetch, err, "fetch %s: malformed data URL", describe(rawURL))
		}
		data := du.Data
		if int64(len(data)) > f.maxBytes {
			return nil, errors.New(errors.ErrCodeFetch, "fetch %s: image exceeds %d bytes", describe(rawURL), f.maxBytes)
		}
		return data, nil
	}

	key := cache.Key(cacheNamespace, rawURL)
	if data, ok, err := f.cache.Get(ctx, key); err != nil {
		f.logger.Warn("image cache read failed", "url", rawURL, "err", err)
	} else if ok {
		observability.Cache().OnCacheHit(ctx, cacheNamespace)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, cacheNamespace)

	data, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, data, f.cacheTTL); err != nil {
		f.logger.Warn("image cache write failed", "url", rawURL, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, cacheNamespace, len(data))
	}
	return data, nil
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetch, err, "fetch %s", rawURL)
	}
	req.Header.Set("User-Agent", userAgent)

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, errors.Wrap(errors.ErrCodeFetch, err, "fetch %s", rawURL)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetch, err, "fetch %s", rawURL)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, errors.New(errors.ErrCodeFetch, "fetch %s: image exceeds %d bytes", rawURL, f.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetch, err, "fetch %s: read body", rawURL)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, errors.New(errors.ErrCodeFetch, "fetch %s: image exceeds %d bytes", rawURL, f.maxBytes)
	}
	return data, nil
}

func checkStatus(code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	return fmt.Errorf("status %d %s", code, http.StatusText(code))
}

// describe shortens a URL for messages; data URLs can be megabytes long.
func describe(rawURL string) string {
	const maxLen = 64
	if len(rawURL) <= maxLen {
		return rawURL
	}
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "data" {
		return u.Scheme + "://" + u.Host + "/..."
	}
	return rawURL[:maxLen] + "..."
}

// Ensure HTTPFetcher implements Fetcher.
var _ Fetcher = (*HTTPFetcher)(nil)
