package document

import (
	"fmt"
	"strings"
	"sync"

	"github.com/matzehuels/fabricpdf/pkg/geom"
)

// Op names a recorded Builder call.
type Op string

// Recorded operations.
const (
	OpFillPage   Op = "FillPage"
	OpFillCircle Op = "FillCircle"
	OpFillRect   Op = "FillRect"
	OpFillPath   Op = "FillPath"
	OpText       Op = "Text"
	OpImage      Op = "Image"
	OpFinalize   Op = "Finalize"
)

// Command is one recorded Builder call. Only the fields relevant to Op are set.
type Command struct {
	Op     Op
	Color  geom.Color
	Point  geom.Point   // FillCircle center, Text origin
	Radius float64      // FillCircle
	Rect   geom.Rect    // FillRect, Image
	Points []geom.Point // FillPath
	Text   string
	Style  TextStyle
	Bytes  int // Image payload length
}

// Args renders the command's arguments for display.
func (c Command) Args() string {
	switch c.Op {
	case OpFillPage:
		return c.Color.String()
	case OpFillCircle:
		return fmt.Sprintf("center=(%g,%g) r=%g %s", c.Point.X, c.Point.Y, c.Radius, c.Color)
	case OpFillRect:
		return fmt.Sprintf("%s %s", formatRect(c.Rect), c.Color)
	case OpFillPath:
		pts := make([]string, len(c.Points))
		for i, p := range c.Points {
			pts[i] = fmt.Sprintf("(%g,%g)", p.X, p.Y)
		}
		return fmt.Sprintf("%s %s", strings.Join(pts, " "), c.Color)
	case OpText:
		return fmt.Sprintf("at=(%g,%g) size=%g align=%s %s %q", c.Point.X, c.Point.Y, c.Style.Size, c.Style.Align, c.Style.Color, c.Text)
	case OpImage:
		return fmt.Sprintf("%s %d bytes", formatRect(c.Rect), c.Bytes)
	}
	return ""
}

func formatRect(r geom.Rect) string {
	return fmt.Sprintf("x=%g y=%g w=%g h=%g", r.X, r.Y, r.W, r.H)
}

// Recorder is a Builder that logs every call instead of drawing.
type Recorder struct {
	mu       sync.Mutex
	size     Size
	commands []Command
	done     bool
}

// NewRecorder returns an empty Recorder with a US Letter page.
func NewRecorder() *Recorder {
	return &Recorder{size: LetterSize}
}

// PageSize returns the page size.
func (r *Recorder) PageSize() Size { return r.size }

// FillPage records a full-page fill.
func (r *Recorder) FillPage(c geom.Color) error {
	return r.record(Command{Op: OpFillPage, Color: c})
}

// FillCircle records a filled circle.
func (r *Recorder) FillCircle(center geom.Point, radius float64, c geom.Color) error {
	return r.record(Command{Op: OpFillCircle, Point: center, Radius: radius, Color: c})
}

// FillRect records a filled rectangle.
func (r *Recorder) FillRect(rect geom.Rect, c geom.Color) error {
	return r.record(Command{Op: OpFillRect, Rect: rect, Color: c})
}

// FillPath records a filled closed polygon. The points are copied.
func (r *Recorder) FillPath(points []geom.Point, c geom.Color) error {
	return r.record(Command{Op: OpFillPath, Points: append([]geom.Point(nil), points...), Color: c})
}

// Text records a text run with its style.
func (r *Recorder) Text(p geom.Point, text string, style TextStyle) error {
	return r.record(Command{Op: OpText, Point: p, Text: text, Style: style, Color: style.Color})
}

// Image records an image placement. Only the byte count is kept.
func (r *Recorder) Image(rect geom.Rect, data []byte) error {
	return r.record(Command{Op: OpImage, Rect: rect, Bytes: len(data)})
}

// Finalize records the final command and closes the log.
func (r *Recorder) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return ErrFinalized
	}
	r.commands = append(r.commands, Command{Op: OpFinalize})
	r.done = true
	return nil
}

// Commands returns a copy of the log.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Ops returns the operation names of the log in order.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]Op, len(r.commands))
	for i, c := range r.commands {
		ops[i] = c.Op
	}
	return ops
}

// Finalized reports whether Finalize has been called.
func (r *Recorder) Finalized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Recorder) record(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return ErrFinalized
	}
	r.commands = append(r.commands, c)
	return nil
}

// Ensure Recorder implements Builder.
var _ Builder = (*Recorder)(nil)
