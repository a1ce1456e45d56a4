package geom

import (
	"reflect"
	"testing"
)

func TestCircleCenter(t *testing.T) {
	tests := []struct {
		name                      string
		left, top, radius, scaleX float64
		want                      Point
	}{
		{"unscaled", 10, 20, 5, 1, Point{15, 25}},
		{"scaled", 0, 0, 10, 2, Point{20, 20}},
		{"shrunk", 100, 50, 40, 0.5, Point{120, 70}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CircleCenter(tt.left, tt.top, tt.radius, tt.scaleX); got != tt.want {
				t.Errorf("CircleCenter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCircleRadiusIgnoresScaleY(t *testing.T) {
	// radius=10, scaleX=2, scaleY=5 must render with radius 20, not 50.
	if got := CircleRadius(10, 2); got != 20 {
		t.Errorf("CircleRadius(10, 2) = %v, want 20", got)
	}
}

func TestScaledRect(t *testing.T) {
	got := ScaledRect(10, 20, 100, 50, 2, 0.5)
	want := Rect{X: 10, Y: 20, W: 200, H: 25}
	if got != want {
		t.Errorf("ScaledRect() = %v, want %v", got, want)
	}
}

func TestTriangleVertices(t *testing.T) {
	got := TriangleVertices(10, 20, 100, 50, 2, 3)
	want := []Point{
		{X: 10, Y: 170},
		{X: 110, Y: 20},
		{X: 210, Y: 170},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TriangleVertices() = %v, want %v", got, want)
	}
}

func TestFontScale(t *testing.T) {
	tests := []struct {
		sx, sy, want float64
	}{
		{1, 1, 1},
		{2, 3, 2},
		{3, 0.5, 0.5},
	}
	for _, tt := range tests {
		if got := FontScale(tt.sx, tt.sy); got != tt.want {
			t.Errorf("FontScale(%v, %v) = %v, want %v", tt.sx, tt.sy, got, tt.want)
		}
	}
}
