package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fabricpdf/pkg/document"
	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/observability"
	"github.com/matzehuels/fabricpdf/pkg/render"
	"github.com/matzehuels/fabricpdf/pkg/scene"
	"github.com/matzehuels/fabricpdf/pkg/store"
)

// Runner encapsulates conversion execution.
// Both CLI and server use this to avoid duplicating the temp-file and
// upload logic.
//
// The Runner is stateless except for its collaborators - it doesn't
// store conversion results. Multiple goroutines can safely use the same
// Runner; each conversion owns its scene, builder and temporary file.
type Runner struct {
	Renderer *render.Renderer
	Store    store.Store
	Logger   *log.Logger
}

// NewRunner creates a runner.
// If renderer is nil, a renderer with default fetch settings is used.
// If logger is nil, log.Default() is used.
// A nil store is allowed for render-only use; Convert then fails.
func NewRunner(renderer *render.Renderer, s store.Store, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if renderer == nil {
		renderer = render.NewRenderer(nil, logger)
	}
	return &Runner{
		Renderer: renderer,
		Store:    s,
		Logger:   logger,
	}
}

// ConvertRequest decodes a {"fabricJSON": ...} envelope and converts it.
func (r *Runner) ConvertRequest(ctx context.Context, body io.Reader, opts Options) (*Result, error) {
	sc, err := scene.Decode(body)
	if err != nil {
		return nil, err
	}
	return r.Convert(ctx, sc, opts)
}

// Convert renders sc to a temporary PDF, uploads it and returns the URL.
func (r *Runner) Convert(ctx context.Context, sc *scene.Scene, opts Options) (*Result, error) {
	if r.Store == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no artifact store configured")
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Stats: Stats{ObjectCount: len(sc.Objects)}}

	// Stage 1: Render into the temporary sink
	renderStart := time.Now()
	data, err := r.renderToTemp(ctx, sc, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)
	result.Stats.Bytes = len(data)

	opts.Logger.Debug("rendered pdf",
		"objects", len(sc.Objects),
		"bytes", len(data),
		"duration", result.Stats.RenderTime)

	// Stage 2: Store
	result.Name = store.NewArtifactName(artifactExt)
	storeStart := time.Now()
	hooks := observability.Store()
	hooks.OnStoreStart(ctx, r.Store.Name(), len(data))
	url, err := r.Store.Store(ctx, store.Artifact{
		Name:        result.Name,
		ContentKind: store.KindRaw,
		Data:        data,
	})
	result.Stats.StoreTime = time.Since(storeStart)
	hooks.OnStoreComplete(ctx, r.Store.Name(), url, result.Stats.StoreTime, err)
	if err != nil {
		return nil, err
	}
	result.URL = url

	opts.Logger.Info("converted scene",
		"url", url,
		"objects", len(sc.Objects),
		"bytes", len(data),
		"duration", result.Stats.RenderTime+result.Stats.StoreTime)

	return result, nil
}

// RenderFile renders sc into a PDF at path without storing it.
func (r *Runner) RenderFile(ctx context.Context, sc *scene.Scene, path string, opts Options) error {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	if err := r.Renderer.Render(ctx, sc, document.NewPDF(f, opts.PDFOptions()...)); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", path)
	}
	return nil
}

// renderToTemp renders into a temporary file and returns its contents.
// The file is removed before returning.
func (r *Runner) renderToTemp(ctx context.Context, sc *scene.Scene, opts Options) ([]byte, error) {
	tmp, err := os.CreateTemp(opts.TempDir, tempPattern)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create temporary file")
	}
	path := tmp.Name()
	defer func() {
		tmp.Close()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			opts.Logger.Warn("failed to remove temporary file", "path", path, "err", err)
		}
	}()

	if err := r.Renderer.Render(ctx, sc, document.NewPDF(tmp, opts.PDFOptions()...)); err != nil {
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "close temporary file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read temporary file")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeRender, "rendered document is empty")
	}
	return data, nil
}

// Close releases resources held by the runner's store, if it holds any.
func (r *Runner) Close(ctx context.Context) error {
	type closer interface {
		Close(context.Context) error
	}
	if c, ok := r.Store.(closer); ok {
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
