// Package geom provides the coordinate math and fill colors used to turn
// scene objects into drawing commands.
//
// Everything here is a pure function of its inputs. Coordinates use a
// top-left origin in page units (PostScript points), matching both the
// Fabric.js canvas and the document builder.
//
// # Effective Values
//
// A scene attribute is stored pre-scale; its effective value is the attribute
// multiplied by the associated scale factor:
//
//	w := geom.Effective(obj.Width, obj.ScaleX)
//
// Circles scale uniformly by scaleX only, and text scales by the smaller of
// the two factors (see [FontScale]).
package geom

import "math"

// Point is a position on the page.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned box anchored at its top-left corner.
type Rect struct {
	X, Y float64
	W, H float64
}

// Effective returns v multiplied by its scale factor.
func Effective(v, scale float64) float64 {
	return v * scale
}

// CircleRadius returns the effective radius of a circle.
// Only scaleX applies; scaleY is ignored by the scene format.
func CircleRadius(radius, scaleX float64) float64 {
	return radius * scaleX
}

// CircleCenter returns the absolute center of a circle whose bounding box
// starts at (left, top).
func CircleCenter(left, top, radius, scaleX float64) Point {
	r := CircleRadius(radius, scaleX)
	return Point{X: left + r, Y: top + r}
}

// ScaledRect returns the render box of an object anchored at (left, top).
func ScaledRect(left, top, width, height, scaleX, scaleY float64) Rect {
	return Rect{
		X: left,
		Y: top,
		W: width * scaleX,
		H: height * scaleY,
	}
}

// TriangleVertices returns the closed path of an isosceles triangle whose
// apex is centered above its base: bottom-left, apex, bottom-right.
func TriangleVertices(left, top, width, height, scaleX, scaleY float64) []Point {
	h := height * scaleY
	baseHalf := (width * scaleX) / 2
	return []Point{
		{X: left, Y: top + h},
		{X: left + baseHalf, Y: top},
		{X: left + baseHalf*2, Y: top + h},
	}
}

// FontScale returns the factor applied to a text object's font size.
func FontScale(scaleX, scaleY float64) float64 {
	return math.Min(scaleX, scaleY)
}
