// Package cli implements the fabricpdf command-line interface.
//
// This package provides commands for serving the conversion API, rendering
// Fabric.js scenes to local PDF files, converting and uploading them, and
// managing the image cache. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - serve: run the HTTP server
//   - render: draw a scene into a local PDF without uploading it
//   - convert: render a scene and upload it to the configured store
//   - inspect: dry-run a scene and print the drawing commands
//   - cache: manage the file image cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
//
// # Configuration
//
// --config names a TOML or YAML file. Environment variables such as PORT
// and CLOUDINARY_URL override it.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fabricpdf/pkg/buildinfo"
	"github.com/matzehuels/fabricpdf/pkg/cache"
	"github.com/matzehuels/fabricpdf/pkg/config"
	"github.com/matzehuels/fabricpdf/pkg/document"
	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/fetch"
	"github.com/matzehuels/fabricpdf/pkg/pipeline"
	"github.com/matzehuels/fabricpdf/pkg/render"
	"github.com/matzehuels/fabricpdf/pkg/scene"
	"github.com/matzehuels/fabricpdf/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "fabricpdf"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	lookupEnv  func(string) (string, bool)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:    newLogger(w, level),
		lookupEnv: os.LookupEnv,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "fabricpdf converts Fabric.js canvases to PDF",
		Long:         `fabricpdf renders Fabric.js canvas JSON into PDF documents and publishes them to an artifact store, either from the command line or as an HTTP service.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads --config and applies environment overrides. It does not
// validate, since commands that never upload do not need store credentials.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(c.lookupEnv)
	return cfg, nil
}

// =============================================================================
// Backend Factories
// =============================================================================

// newCache builds the image cache selected by cfg.
func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheNone, "":
		return cache.NewNullCache(), nil
	case config.CacheFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "create cache directory %s", dir)
		}
		return fc, nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to redis at %s", cfg.RedisAddr)
		}
		return rc, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Backend)
}

// newStore builds the artifact store selected by cfg. The returned Store
// also implements store.Opener for the gridfs and local backends.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	s := cfg.Store
	switch s.Backend {
	case config.StoreCloudinary:
		cl, err := store.NewCloudinary(store.CloudinaryConfig{
			URL:       s.Cloudinary.URL,
			CloudName: s.Cloudinary.CloudName,
			APIKey:    s.Cloudinary.APIKey,
			APISecret: s.Cloudinary.APISecret,
			Folder:    s.Cloudinary.Folder,
		})
		if err != nil {
			return nil, err
		}
		return cl, nil
	case config.StoreGridFS:
		g, err := store.NewGridFS(ctx, store.GridFSConfig{
			URI:      s.Mongo.URI,
			Database: s.Mongo.Database,
			Bucket:   s.Mongo.Bucket,
			BaseURL:  cfg.Server.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.StoreLocal:
		l, err := store.NewLocal(s.Local.Dir, cfg.Server.PublicURL)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", s.Backend)
}

// newRenderer builds a renderer whose fetcher uses the configured cache.
// The returned cache must be closed by the caller.
func (c *CLI) newRenderer(ctx context.Context, cfg *config.Config, noCache bool) (*render.Renderer, cache.Cache, error) {
	cacheCfg := cfg.Cache
	if noCache {
		cacheCfg.Backend = config.CacheNone
	}
	imgCache, err := newCache(ctx, cacheCfg)
	if err != nil {
		return nil, nil, err
	}
	fetcher := fetch.New(fetch.Options{
		Timeout:  cfg.Fetch.Timeout,
		MaxBytes: cfg.Fetch.MaxBytes,
		Cache:    imgCache,
		CacheTTL: cfg.Cache.TTL,
		Logger:   c.Logger,
	})
	r := render.NewRenderer(fetcher, c.Logger)
	r.Concurrency = cfg.Render.Concurrency
	return r, imgCache, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineOptions maps the render section of cfg onto conversion options.
func (c *CLI) pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		TempDir:            cfg.Render.TempDir,
		PageSize:           document.Size{W: cfg.Render.PageWidth, H: cfg.Render.PageHeight},
		DisableCompression: cfg.Render.DisableCompression,
		Logger:             c.Logger,
	}
}

// readScene decodes a scene file. Both the request envelope
// ({"fabricJSON": ...}) and a bare canvas document are accepted; "-"
// reads standard input.
func readScene(path string) (*scene.Scene, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return scene.ParseDocument(data)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/fabricpdf/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
