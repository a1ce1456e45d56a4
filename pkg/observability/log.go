package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks forwards every hook event to a logger at debug level.
// It implements RenderHooks, CacheHooks, HTTPHooks and StoreHooks.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger. A nil logger uses log.Default().
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

// Install registers h for every hook category.
func (h *LogHooks) Install() {
	SetRenderHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
	SetStoreHooks(h)
}

func (h *LogHooks) OnRenderStart(_ context.Context, objectCount int) {
	h.logger.Debug("render start", "objects", objectCount)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, objectCount int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "objects", objectCount, "duration", d, "err", err)
		return
	}
	h.logger.Debug("render complete", "objects", objectCount, "duration", d)
}

func (h *LogHooks) OnObjectSkipped(_ context.Context, index int, objectType string) {
	h.logger.Debug("object skipped", "index", index, "type", objectType)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

func (h *LogHooks) OnStoreStart(_ context.Context, backend string, size int) {
	h.logger.Debug("store start", "backend", backend, "bytes", size)
}

func (h *LogHooks) OnStoreComplete(_ context.Context, backend, url string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("store failed", "backend", backend, "duration", d, "err", err)
		return
	}
	h.logger.Debug("store complete", "backend", backend, "url", url, "duration", d)
}

var (
	_ RenderHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
	_ HTTPHooks   = (*LogHooks)(nil)
	_ StoreHooks  = (*LogHooks)(nil)
)
