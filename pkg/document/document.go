// Package document defines the page-based drawing target of the renderer.
//
// A [Builder] accepts a small vocabulary of filled primitives, text and
// raster images in page coordinates (points, origin at the top-left corner,
// y growing downward) and writes the finished document on [Builder.Finalize].
// Finalize is terminal: every later call returns [ErrFinalized].
//
// Two implementations are provided:
//
//   - [PDF] renders a single-page PDF with github.com/jung-kurt/gofpdf.
//   - [Recorder] keeps an ordered log of the calls it receives. It backs
//     dry runs (fabricpdf inspect) and renderer tests.
//
// Both are safe for concurrent use; calls are serialized internally.
package document

import (
	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/geom"
)

// Size is a page size in points.
type Size struct {
	W float64
	H float64
}

// LetterSize is US Letter, 8.5 x 11 inches.
var LetterSize = Size{W: 612, H: 792}

// DefaultFont is the built-in font used for text.
const DefaultFont = "Helvetica"

// LineHeight is the line spacing as a multiple of the font size.
const LineHeight = 1.16

// Align is a horizontal text alignment.
type Align string

// Text alignments.
const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// TextStyle describes how a text block is laid out.
type TextStyle struct {
	Font  string // Empty selects DefaultFont
	Size  float64
	Color geom.Color
	Align Align

	// Width is the wrap width. Zero or less wraps at the right page edge.
	Width float64
}

// ErrFinalized is returned by every Builder call made after Finalize.
var ErrFinalized = errors.New(errors.ErrCodeRender, "document already finalized")

// Builder is a page-based document sink.
type Builder interface {
	PageSize() Size
	FillPage(c geom.Color) error
	FillCircle(center geom.Point, radius float64, c geom.Color) error
	FillRect(r geom.Rect, c geom.Color) error

	// FillPath fills the closed polygon through points.
	FillPath(points []geom.Point, c geom.Color) error

	// Text draws text with its top-left corner at p.
	Text(p geom.Point, text string, style TextStyle) error

	// Image draws encoded raster bytes (PNG, JPEG, GIF, WebP, BMP, TIFF)
	// scaled into r.
	Image(r geom.Rect, data []byte) error

	// Finalize writes the complete document.
	Finalize() error
}
