// Package config loads fabricpdf settings.
//
// Settings come from three layers, later ones winning:
//
//  1. [Default]
//  2. A TOML (.toml) or YAML (.yaml, .yml) file passed to [Load]
//  3. Environment variables applied by [Config.ApplyEnv]
//
// Durations are written as strings such as "15s" or "24h".
//
//	cfg, err := config.Load("fabricpdf.toml")
//	if err != nil {
//	    return err
//	}
//	cfg.ApplyEnv(os.LookupEnv)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/fabricpdf/pkg/errors"
)

// Store backends.
const (
	StoreCloudinary = "cloudinary"
	StoreGridFS     = "gridfs"
	StoreLocal      = "local"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// DefaultPort matches the port the service has always listened on.
const DefaultPort = "4000"

// Config is the complete service configuration.
type Config struct {
	Server ServerConfig `toml:"server" yaml:"server"`
	Render RenderConfig `toml:"render" yaml:"render"`
	Fetch  FetchConfig  `toml:"fetch" yaml:"fetch"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Store  StoreConfig  `toml:"store" yaml:"store"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`

	// PublicURL is the externally visible base URL, used to build artifact
	// links for the gridfs and local stores.
	PublicURL string `toml:"public_url" yaml:"public_url"`

	ReadTimeout     time.Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `toml:"max_body_bytes" yaml:"max_body_bytes"`

	// AuthSecret enables HS256 bearer-token auth on the convert route.
	AuthSecret string `toml:"auth_secret" yaml:"auth_secret"`

	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
}

// RenderConfig configures rendering.
type RenderConfig struct {
	Concurrency        int     `toml:"concurrency" yaml:"concurrency"`
	PageWidth          float64 `toml:"page_width" yaml:"page_width"`
	PageHeight         float64 `toml:"page_height" yaml:"page_height"`
	TempDir            string  `toml:"temp_dir" yaml:"temp_dir"`
	DisableCompression bool    `toml:"disable_compression" yaml:"disable_compression"`
}

// FetchConfig configures image downloads.
type FetchConfig struct {
	Timeout  time.Duration `toml:"timeout" yaml:"timeout"`
	MaxBytes int64         `toml:"max_bytes" yaml:"max_bytes"`
}

// CacheConfig configures the image cache.
type CacheConfig struct {
	Backend string        `toml:"backend" yaml:"backend"`
	TTL     time.Duration `toml:"ttl" yaml:"ttl"`

	// Dir is the file cache directory. Empty uses the user cache directory.
	Dir string `toml:"dir" yaml:"dir"`

	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix" yaml:"redis_prefix"`
}

// StoreConfig selects and configures the artifact store.
type StoreConfig struct {
	Backend    string           `toml:"backend" yaml:"backend"`
	Cloudinary CloudinaryConfig `toml:"cloudinary" yaml:"cloudinary"`
	Mongo      MongoConfig      `toml:"mongo" yaml:"mongo"`
	Local      LocalConfig      `toml:"local" yaml:"local"`
}

// CloudinaryConfig holds Cloudinary credentials.
type CloudinaryConfig struct {
	URL       string `toml:"url" yaml:"url"`
	CloudName string `toml:"cloud_name" yaml:"cloud_name"`
	APIKey    string `toml:"api_key" yaml:"api_key"`
	APISecret string `toml:"api_secret" yaml:"api_secret"`
	Folder    string `toml:"folder" yaml:"folder"`
}

// MongoConfig configures the GridFS store.
type MongoConfig struct {
	URI      string `toml:"uri" yaml:"uri"`
	Database string `toml:"database" yaml:"database"`
	Bucket   string `toml:"bucket" yaml:"bucket"`
}

// LocalConfig configures the local directory store.
type LocalConfig struct {
	Dir string `toml:"dir" yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":" + DefaultPort,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    10 << 20,
			CORSOrigins:     []string{"*"},
		},
		Render: RenderConfig{
			Concurrency: 8,
			PageWidth:   612,
			PageHeight:  792,
		},
		Fetch: FetchConfig{
			Timeout:  15 * time.Second,
			MaxBytes: 20 << 20,
		},
		Cache: CacheConfig{
			Backend:     CacheNone,
			TTL:         24 * time.Hour,
			RedisPrefix: "fabricpdf:",
		},
		Store: StoreConfig{
			Backend: StoreCloudinary,
			Mongo: MongoConfig{
				Database: "fabricpdf",
				Bucket:   "artifacts",
			},
			Local: LocalConfig{Dir: "artifacts"},
		},
	}
}

// Load reads path over the defaults. The decoder is chosen by extension.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "parse %s: unknown key %q", filepath.Base(path), undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables. lookup is
// usually os.LookupEnv.
//
// Recognized variables: PORT, CLOUDINARY_URL, CLOUDINARY_CLOUD_NAME,
// CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET, FABRICPDF_STORE, MONGO_URI,
// REDIS_ADDR, FABRICPDF_AUTH_SECRET and FABRICPDF_PUBLIC_URL.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	var port string
	set("PORT", &port)
	if port != "" {
		c.Server.Addr = ":" + port
	}
	set("FABRICPDF_PUBLIC_URL", &c.Server.PublicURL)
	set("FABRICPDF_AUTH_SECRET", &c.Server.AuthSecret)
	set("FABRICPDF_STORE", &c.Store.Backend)
	set("CLOUDINARY_URL", &c.Store.Cloudinary.URL)
	set("CLOUDINARY_CLOUD_NAME", &c.Store.Cloudinary.CloudName)
	set("CLOUDINARY_API_KEY", &c.Store.Cloudinary.APIKey)
	set("CLOUDINARY_API_SECRET", &c.Store.Cloudinary.APISecret)
	set("MONGO_URI", &c.Store.Mongo.URI)

	var redisAddr string
	set("REDIS_ADDR", &redisAddr)
	if redisAddr != "" {
		c.Cache.RedisAddr = redisAddr
		if c.Cache.Backend == CacheNone || c.Cache.Backend == "" {
			c.Cache.Backend = CacheRedis
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Server.Addr == "" {
		add("server.addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		add("server.max_body_bytes must be positive")
	}
	if c.Render.Concurrency <= 0 {
		add("render.concurrency must be positive")
	}
	if c.Render.PageWidth <= 0 || c.Render.PageHeight <= 0 {
		add("render page size must be positive")
	}
	if c.Fetch.Timeout <= 0 {
		add("fetch.timeout must be positive")
	}
	if c.Fetch.MaxBytes <= 0 {
		add("fetch.max_bytes must be positive")
	}

	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			add("cache.redis_addr is required for the redis cache")
		}
	default:
		add("cache.backend %q is not one of none, file, redis", c.Cache.Backend)
	}

	switch c.Store.Backend {
	case StoreCloudinary:
		cl := c.Store.Cloudinary
		if cl.URL == "" && (cl.CloudName == "" || cl.APIKey == "" || cl.APISecret == "") {
			add("store.cloudinary needs url or cloud_name, api_key and api_secret")
		}
	case StoreGridFS:
		if c.Store.Mongo.URI == "" {
			add("store.mongo.uri is required for the gridfs store")
		}
		if c.Server.PublicURL == "" {
			add("server.public_url is required for the gridfs store")
		}
	case StoreLocal:
		if c.Store.Local.Dir == "" {
			add("store.local.dir is required for the local store")
		}
	default:
		add("store.backend %q is not one of cloudinary, gridfs, local", c.Store.Backend)
	}

	if len(problems) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s", strings.Join(problems, "; "))
	}
	return nil
}
