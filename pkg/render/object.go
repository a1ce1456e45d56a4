package render

import (
	"context"
	"fmt"

	"github.com/matzehuels/fabricpdf/pkg/document"
	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/geom"
	"github.com/matzehuels/fabricpdf/pkg/observability"
	"github.com/matzehuels/fabricpdf/pkg/scene"
)

// renderObject validates obj and returns the task that draws it.
// Unsupported types are logged and yield a nil task.
func (r *Renderer) renderObject(ctx context.Context, obj scene.Object) (task, error) {
	base := obj.Common()

	switch o := obj.(type) {
	case *scene.Circle:
		fill, err := fillColor(o.Base)
		if err != nil {
			return nil, err
		}
		center := geom.CircleCenter(o.Left, o.Top, o.Radius, o.ScaleX)
		radius := geom.CircleRadius(o.Radius, o.ScaleX)
		return ready(func(b document.Builder) error {
			return b.FillCircle(center, radius, fill)
		}), nil

	case *scene.Rect:
		fill, err := fillColor(o.Base)
		if err != nil {
			return nil, err
		}
		rect := geom.ScaledRect(o.Left, o.Top, o.Width, o.Height, o.ScaleX, o.ScaleY)
		return ready(func(b document.Builder) error {
			return b.FillRect(rect, fill)
		}), nil

	case *scene.Triangle:
		fill, err := fillColor(o.Base)
		if err != nil {
			return nil, err
		}
		points := geom.TriangleVertices(o.Left, o.Top, o.Width, o.Height, o.ScaleX, o.ScaleY)
		return ready(func(b document.Builder) error {
			return b.FillPath(points, fill)
		}), nil

	case *scene.TextBox:
		color := geom.Black
		if o.Fill != "" {
			c, err := fillColor(o.Base)
			if err != nil {
				return nil, err
			}
			color = c
		}
		size := o.FontSize * geom.FontScale(o.ScaleX, o.ScaleY)
		if size <= 0 {
			return nil, errors.New(errors.ErrCodeRender, "object %d (textbox): effective font size %g is not positive", o.Index, size)
		}
		style := document.TextStyle{
			Font:  document.DefaultFont,
			Size:  size,
			Color: color,
			Align: document.Align(o.TextAlign),
			Width: geom.Effective(o.Width, o.ScaleX),
		}
		origin := geom.Point{X: o.Left, Y: o.Top}
		text := o.Text
		return ready(func(b document.Builder) error {
			return b.Text(origin, text, style)
		}), nil

	case *scene.Image:
		rect := geom.ScaledRect(o.Left, o.Top, o.Width, o.Height, o.ScaleX, o.ScaleY)
		src, index := o.Src, o.Index
		return func(ctx context.Context) (drawOp, error) {
			data, err := r.Fetcher.Fetch(ctx, src)
			if err != nil {
				return nil, fmt.Errorf("object %d (image): %w", index, err)
			}
			return func(b document.Builder) error {
				return b.Image(rect, data)
			}, nil
		}, nil
	}

	skipped := errors.New(errors.ErrCodeUnrecognized, "object %d: unrecognized object type %q", base.Index, obj.Type())
	r.Logger.Warn("skipping object", "index", base.Index, "type", obj.Type(), "err", skipped)
	observability.Render().OnObjectSkipped(ctx, base.Index, string(obj.Type()))
	return nil, nil
}

// ready wraps an op that needs no I/O.
func ready(op drawOp) task {
	return func(context.Context) (drawOp, error) { return op, nil }
}

func fillColor(b scene.Base) (geom.Color, error) {
	c, err := geom.ParseColor(b.Fill)
	if err != nil {
		return geom.Color{}, errors.Wrap(errors.ErrCodeRender, err, "object %d: invalid fill", b.Index)
	}
	return c, nil
}
