package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/fabricpdf/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":4000" {
		t.Errorf("Addr = %q, want :4000", cfg.Server.Addr)
	}
	if cfg.Fetch.Timeout != 15*time.Second || cfg.Fetch.MaxBytes != 20<<20 {
		t.Errorf("fetch = %+v", cfg.Fetch)
	}
	if cfg.Render.Concurrency != 8 || cfg.Render.PageWidth != 612 || cfg.Render.PageHeight != 792 {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Store.Backend != StoreCloudinary || cfg.Cache.Backend != CacheNone {
		t.Errorf("backends = %s/%s", cfg.Store.Backend, cfg.Cache.Backend)
	}

	// Defaults lack credentials, so the cloudinary store is incomplete.
	if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Validate() = %v, want INVALID_CONFIG", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "fabricpdf.toml", `
[server]
addr = ":8080"
public_url = "https://pdf.example.com"
shutdown_timeout = "5s"

[fetch]
timeout = "3s"

[cache]
backend = "file"
ttl = "1h"

[store]
backend = "gridfs"

[store.mongo]
uri = "mongodb://localhost:27017"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Fetch.Timeout != 3*time.Second {
		t.Errorf("fetch.timeout = %v", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxBytes != 20<<20 {
		t.Errorf("unset keys should keep defaults, max_bytes = %d", cfg.Fetch.MaxBytes)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Cache.TTL != time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Store.Mongo.Database != "fabricpdf" {
		t.Errorf("mongo database default lost: %q", cfg.Store.Mongo.Database)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "fabricpdf.yaml", `
server:
  addr: ":9000"
  auth_secret: s3cret
render:
  concurrency: 2
fetch:
  timeout: 750ms
store:
  backend: local
  local:
    dir: /tmp/artifacts
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.AuthSecret != "s3cret" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Render.Concurrency != 2 || cfg.Fetch.Timeout != 750*time.Millisecond {
		t.Errorf("render/fetch = %+v %+v", cfg.Render, cfg.Fetch)
	}
	if cfg.Store.Backend != StoreLocal || cfg.Store.Local.Dir != "/tmp/artifacts" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "config.json", `{}`},
		{"bad toml", "config.toml", `[server`},
		{"unknown toml key", "config.toml", "[server]\nport = 1\n"},
		{"bad yaml", "config.yaml", "server: [1, 2"},
		{"unknown yaml key", "config.yml", "server:\n  port: 1\n"},
		{"bad duration", "config.toml", "[fetch]\ntimeout = \"soon\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load(missing) error = %v, want INVALID_CONFIG", err)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Error("empty path should return defaults")
	}
}

func TestLoad_EmptyYAML(t *testing.T) {
	if _, err := Load(writeFile(t, "empty.yaml", "")); err != nil {
		t.Errorf("Load(empty yaml) error: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		"PORT":                  "5000",
		"CLOUDINARY_CLOUD_NAME": "demo",
		"CLOUDINARY_API_KEY":    "key",
		"CLOUDINARY_API_SECRET": "secret",
		"REDIS_ADDR":            "localhost:6379",
		"FABRICPDF_AUTH_SECRET": "jwt-secret",
		"MONGO_URI":             "",
	}))

	if cfg.Server.Addr != ":5000" {
		t.Errorf("Addr = %q, want :5000", cfg.Server.Addr)
	}
	if cfg.Store.Cloudinary.CloudName != "demo" || cfg.Store.Cloudinary.APISecret != "secret" {
		t.Errorf("cloudinary = %+v", cfg.Store.Cloudinary)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.AuthSecret != "jwt-secret" {
		t.Errorf("AuthSecret = %q", cfg.Server.AuthSecret)
	}
	if cfg.Store.Mongo.URI != "" {
		t.Error("empty variables must not override")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestApplyEnv_KeepsExplicitCacheBackend(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = CacheFile
	cfg.ApplyEnv(envMap(map[string]string{"REDIS_ADDR": "redis:6379"}))
	if cfg.Cache.Backend != CacheFile {
		t.Errorf("Backend = %q, want file", cfg.Cache.Backend)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Store.Backend = StoreLocal
		return cfg
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		contains string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"zero concurrency", func(c *Config) { c.Render.Concurrency = 0 }, "render.concurrency"},
		{"zero page", func(c *Config) { c.Render.PageWidth = 0 }, "page size"},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "fetch.timeout"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis }, "redis_addr"},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"unknown store", func(c *Config) { c.Store.Backend = "s3" }, "store.backend"},
		{"gridfs without uri", func(c *Config) { c.Store.Backend = StoreGridFS }, "store.mongo.uri"},
		{"local without dir", func(c *Config) { c.Store.Local.Dir = "" }, "store.local.dir"},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("baseline Validate() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Validate() = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not mention %q", err, tt.contains)
			}
		})
	}
}
