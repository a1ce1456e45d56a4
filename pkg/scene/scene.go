// Package scene defines the Fabric.js canvas model consumed by the renderer.
//
// A [Scene] is an optional background color plus an ordered list of drawable
// objects. The order of [Scene.Objects] is the z-order: later objects are
// drawn on top of earlier ones. A scene is decoded once per conversion and
// never mutated afterwards.
//
// # Objects
//
// Each object is a tagged variant selected by its JSON "type" field:
//
//   - [Circle]:   "circle"
//   - [Rect]:     "rect"
//   - [Triangle]: "triangle"
//   - [TextBox]:  "textbox"
//   - [Image]:    "image"
//   - [Unknown]:  any other type, skipped by the renderer
//
// All variants embed [Base], which carries position, scale and fill. Absent
// scale factors default to 1.
//
// # Decoding
//
// [Decode] reads the HTTP request envelope ({"fabricJSON": {...}}), while
// [Parse] reads a bare scene document. Missing required attributes are
// reported as RENDER_ERROR with the offending object index:
//
//	sc, err := scene.Decode(r.Body)
//	if errors.Is(err, errors.ErrCodeRender) {
//	    // malformed object
//	}
package scene

// Type is the value of an object's "type" field.
type Type string

// Object types understood by the renderer.
const (
	TypeCircle   Type = "circle"
	TypeRect     Type = "rect"
	TypeTriangle Type = "triangle"
	TypeTextBox  Type = "textbox"
	TypeImage    Type = "image"
)

// Known reports whether t is one of the supported object types.
func (t Type) Known() bool {
	switch t {
	case TypeCircle, TypeRect, TypeTriangle, TypeTextBox, TypeImage:
		return true
	}
	return false
}

// Scene is a decoded canvas document.
type Scene struct {
	// Background is the page fill color. Empty means no background.
	Background string

	// Objects in draw order.
	Objects []Object
}

// Object is one drawable unit of a scene.
// The concrete type is one of *Circle, *Rect, *Triangle, *TextBox, *Image
// or *Unknown.
type Object interface {
	// Type returns the object's declared type.
	Type() Type

	// Common returns the attributes shared by every variant.
	Common() *Base
}

// Base holds the attributes shared by all object variants.
type Base struct {
	// Index is the object's position in the input sequence.
	Index int

	Left   float64
	Top    float64
	ScaleX float64
	ScaleY float64

	// Fill is the raw color string. Empty when absent.
	Fill string
}

// Common implements Object.
func (b *Base) Common() *Base { return b }

// Circle is a filled circle whose bounding box starts at (Left, Top).
type Circle struct {
	Base
	Radius float64
}

// Rect is a filled axis-aligned rectangle.
type Rect struct {
	Base
	Width  float64
	Height float64
}

// Triangle is a filled isosceles triangle with its apex centered above the base.
type Triangle struct {
	Base
	Width  float64
	Height float64
}

// TextBox is a block of text wrapped to Width.
type TextBox struct {
	Base
	Text      string
	FontSize  float64
	Width     float64
	TextAlign Align
}

// Image is a remote raster image drawn into a Width x Height box.
type Image struct {
	Base
	Src    string
	Width  float64
	Height float64
}

// Unknown is an object whose type the renderer does not support.
type Unknown struct {
	Base
	TypeName string
}

// Type implements Object.
func (*Circle) Type() Type { return TypeCircle }

// Type implements Object.
func (*Rect) Type() Type { return TypeRect }

// Type implements Object.
func (*Triangle) Type() Type { return TypeTriangle }

// Type implements Object.
func (*TextBox) Type() Type { return TypeTextBox }

// Type implements Object.
func (*Image) Type() Type { return TypeImage }

// Type implements Object.
func (u *Unknown) Type() Type { return Type(u.TypeName) }

// Align is a text alignment.
type Align string

// Text alignments accepted in "textAlign".
const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// Valid reports whether a is one of the supported alignments.
func (a Align) Valid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return true
	}
	return false
}

// Images returns the image objects of the scene in draw order.
func (s *Scene) Images() []*Image {
	var out []*Image
	for _, obj := range s.Objects {
		if img, ok := obj.(*Image); ok {
			out = append(out, img)
		}
	}
	return out
}
