package geom

import (
	"fmt"
	"strings"

	"github.com/mazznoer/csscolorparser"
	"golang.org/x/image/colornames"
)

// Color is an sRGB fill color with straight (non-premultiplied) alpha.
// A is in the range [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

// Black is the default text color.
var Black = Color{A: 1}

// Opaque reports whether the color has full alpha.
func (c Color) Opaque() bool { return c.A >= 1 }

// String formats the color as #rrggbb, or #rrggbbaa when translucent.
func (c Color) String() string {
	if c.Opaque() {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, uint8(c.A*255+0.5))
}

// ParseColor parses a CSS color as produced by Fabric.js.
//
// Hex ("#rgb", "#rgba", "#rrggbb", "#rrggbbaa"), rgb()/rgba() with numeric
// or percentage channels, hsl()/hsla(), CSS named colors and "transparent"
// are accepted. Matching is case-insensitive. Out-of-range channels clamp.
func ParseColor(value string) (Color, error) {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return Color{}, fmt.Errorf("empty color")
	}
	c, err := csscolorparser.Parse(s)
	if err != nil {
		if named, ok := colornames.Map[s]; ok {
			return Color{R: named.R, G: named.G, B: named.B, A: 1}, nil
		}
		return Color{}, fmt.Errorf("unknown color %q", value)
	}
	return Color{
		R: channel(c.R),
		G: channel(c.G),
		B: channel(c.B),
		A: clamp(c.A, 0, 1),
	}, nil
}

func channel(v float64) uint8 {
	return uint8(clamp(v, 0, 1)*255 + 0.5)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
