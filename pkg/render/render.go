package render

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/fabricpdf/pkg/document"
	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/fetch"
	"github.com/matzehuels/fabricpdf/pkg/geom"
	"github.com/matzehuels/fabricpdf/pkg/observability"
	"github.com/matzehuels/fabricpdf/pkg/scene"
)

// DefaultConcurrency bounds the number of objects processed at once.
const DefaultConcurrency = 8

// Renderer draws scenes. It holds no per-render state, so one Renderer can
// serve concurrent renders as long as each uses its own Builder.
type Renderer struct {
	Fetcher     fetch.Fetcher
	Logger      *log.Logger
	Concurrency int
}

// NewRenderer creates a renderer.
// If f is nil, images are fetched with default fetch options.
// If logger is nil, log.Default() is used.
func NewRenderer(f fetch.Fetcher, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	if f == nil {
		f = fetch.New(fetch.Options{Logger: logger})
	}
	return &Renderer{
		Fetcher:     f,
		Logger:      logger,
		Concurrency: DefaultConcurrency,
	}
}

// drawOp issues one object's commands against the builder.
type drawOp func(b document.Builder) error

// task produces an object's drawOp. Image tasks block on the fetch.
type task func(ctx context.Context) (drawOp, error)

// Render draws sc onto b and finalizes it.
func (r *Renderer) Render(ctx context.Context, sc *scene.Scene, b document.Builder) (err error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, len(sc.Objects))
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, len(sc.Objects), time.Since(start), err)
	}()

	tasks, err := r.plan(ctx, sc)
	if err != nil {
		return err
	}

	if sc.Background != "" {
		bg, err := geom.ParseColor(sc.Background)
		if err != nil {
			return errors.Wrap(errors.ErrCodeRender, err, "background")
		}
		if err := b.FillPage(bg); err != nil {
			return err
		}
	}

	ops, err := r.run(ctx, tasks)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	for i, op := range ops {
		if op == nil {
			continue
		}
		if err := op(b); err != nil {
			return fmt.Errorf("object %d (%s): %w", i, sc.Objects[i].Type(), err)
		}
	}

	if err := b.Finalize(); err != nil {
		return err
	}
	r.Logger.Debug("rendered scene", "objects", len(sc.Objects), "duration", time.Since(start))
	return nil
}

// RenderPDF renders sc into an in-memory PDF.
func (r *Renderer) RenderPDF(ctx context.Context, sc *scene.Scene, opts ...document.Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(ctx, sc, document.NewPDF(&buf, opts...)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// plan validates every object and builds its task. Unsupported objects get
// a nil task.
func (r *Renderer) plan(ctx context.Context, sc *scene.Scene) ([]task, error) {
	tasks := make([]task, len(sc.Objects))
	for i, obj := range sc.Objects {
		t, err := r.renderObject(ctx, obj)
		if err != nil {
			return nil, err
		}
		tasks[i] = t
	}
	return tasks, nil
}

// run executes tasks concurrently and waits for all of them. The returned
// slice holds each task's op at its index. All task failures are joined.
func (r *Renderer) run(ctx context.Context, tasks []task) ([]drawOp, error) {
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	ops := make([]drawOp, len(tasks))
	errs := make([]error, len(tasks))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, t := range tasks {
		if t == nil {
			continue
		}
		g.Go(func() error {
			ops[i], errs[i] = t(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return ops, nil
}
