package document

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/geom"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	return img
}

func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPDF_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPDF(&buf)
	if err := p.Finalize(); err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "%PDF-") {
		t.Errorf("output does not start with %%PDF-: %q", out[:min(len(out), 16)])
	}
	if !strings.Contains(out[max(0, len(out)-16):], "%%EOF") {
		t.Errorf("output does not end with %%EOF")
	}
}

func TestPDF_PageSize(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"default letter", nil, "612.00 792.00"},
		{"custom", []Option{WithPageSize(Size{W: 300, H: 200})}, "300.00 200.00"},
		{"invalid ignored", []Option{WithPageSize(Size{W: 0, H: 100})}, "612.00 792.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := NewPDF(&buf, append(tt.opts, WithCompression(false))...)
			if err := p.Finalize(); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("MediaBox %q not found in output", tt.want)
			}
		})
	}
}

func TestPDF_DrawAll(t *testing.T) {
	var buf bytes.Buffer
	p := NewPDF(&buf, WithTitle("scene"), WithCompression(false))
	red := geom.Color{R: 255, A: 1}
	translucent := geom.Color{B: 255, A: 0.5}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"FillPage", func() error { return p.FillPage(geom.Color{R: 250, G: 250, B: 250, A: 1}) }},
		{"FillCircle", func() error { return p.FillCircle(geom.Point{X: 50, Y: 50}, 20, red) }},
		{"FillRect", func() error { return p.FillRect(geom.Rect{X: 10, Y: 10, W: 100, H: 40}, translucent) }},
		{"FillPath", func() error {
			return p.FillPath([]geom.Point{{X: 0, Y: 100}, {X: 50, Y: 50}, {X: 100, Y: 100}}, red)
		}},
		{"Text", func() error {
			return p.Text(geom.Point{X: 20, Y: 200}, "Grüße, café", TextStyle{Size: 14, Color: geom.Black, Align: AlignCenter, Width: 200})
		}},
		{"Image", func() error { return p.Image(geom.Rect{X: 300, Y: 300, W: 64, H: 32}, encodeTestPNG(t, testImage(8, 4))) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			t.Fatalf("%s() error: %v", s.name, err)
		}
	}
	if err := p.Finalize(); err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"/Title", "/Helvetica", "/Subtype /Image"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestPDF_ImageFormats(t *testing.T) {
	img := testImage(4, 4)

	var bmpBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, img); err != nil {
		t.Fatal(err)
	}

	wide := image.NewNRGBA64(image.Rect(0, 0, 4, 4))
	for i := range wide.Pix {
		wide.Pix[i] = 0xff
	}

	tests := []struct {
		name     string
		data     []byte
		wantType string
	}{
		{"png", encodeTestPNG(t, img), imagePNG},
		{"bmp converted", bmpBuf.Bytes(), imagePNG},
		{"16-bit png converted", encodeTestPNG(t, wide), imagePNG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, typ, err := normalizeImage(tt.data)
			if err != nil {
				t.Fatalf("normalizeImage() error: %v", err)
			}
			if typ != tt.wantType {
				t.Errorf("type = %q, want %q", typ, tt.wantType)
			}
			if !pngEmbeddable(out) {
				t.Error("normalized PNG is not embeddable")
			}

			var buf bytes.Buffer
			p := NewPDF(&buf)
			if err := p.Image(geom.Rect{W: 10, H: 10}, tt.data); err != nil {
				t.Fatalf("Image() error: %v", err)
			}
			if err := p.Finalize(); err != nil {
				t.Fatalf("Finalize() error: %v", err)
			}
		})
	}
}

func TestPDF_ImageDeduplicated(t *testing.T) {
	var buf bytes.Buffer
	p := NewPDF(&buf, WithCompression(false))
	data := encodeTestPNG(t, testImage(4, 4))

	for i := 0; i < 3; i++ {
		if err := p.Image(geom.Rect{X: float64(i * 20), W: 10, H: 10}, data); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Finalize(); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "/Subtype /Image"); n != 1 {
		t.Errorf("embedded %d image objects, want 1", n)
	}
}

func TestPDF_Errors(t *testing.T) {
	p := NewPDF(&bytes.Buffer{})

	if err := p.Image(geom.Rect{W: 1, H: 1}, []byte("not an image")); !errors.Is(err, errors.ErrCodeRender) {
		t.Errorf("Image(garbage) error = %v, want RENDER_ERROR", err)
	}
	if err := p.FillPath([]geom.Point{{X: 1, Y: 1}}, geom.Black); !errors.Is(err, errors.ErrCodeRender) {
		t.Errorf("FillPath(1 point) error = %v, want RENDER_ERROR", err)
	}
	if err := p.Text(geom.Point{}, "x", TextStyle{Size: 0}); !errors.Is(err, errors.ErrCodeRender) {
		t.Errorf("Text(size 0) error = %v, want RENDER_ERROR", err)
	}

	// Rejected calls must not poison the document.
	var buf bytes.Buffer
	p = NewPDF(&buf)
	_ = p.Image(geom.Rect{W: 1, H: 1}, []byte("not an image"))
	if err := p.FillRect(geom.Rect{W: 1, H: 1}, geom.Black); err != nil {
		t.Errorf("FillRect() after rejected image: %v", err)
	}
	if err := p.Finalize(); err != nil {
		t.Errorf("Finalize() after rejected image: %v", err)
	}
}

func TestPDF_FinalizeIsTerminal(t *testing.T) {
	p := NewPDF(&bytes.Buffer{})
	if err := p.Finalize(); err != nil {
		t.Fatal(err)
	}

	calls := map[string]error{
		"Finalize":   p.Finalize(),
		"FillPage":   p.FillPage(geom.Black),
		"FillCircle": p.FillCircle(geom.Point{}, 1, geom.Black),
		"FillRect":   p.FillRect(geom.Rect{}, geom.Black),
		"Text":       p.Text(geom.Point{}, "x", TextStyle{Size: 10}),
	}
	for name, err := range calls {
		if err != ErrFinalized {
			t.Errorf("%s() after Finalize = %v, want ErrFinalized", name, err)
		}
	}
}

func TestPDF_ConcurrentCalls(t *testing.T) {
	var buf bytes.Buffer
	p := NewPDF(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = p.FillRect(geom.Rect{X: float64(i), Y: float64(i), W: 5, H: 5}, geom.Black)
		}(i)
	}
	wg.Wait()

	if err := p.Finalize(); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("invalid PDF output")
	}
}

func TestAlignStr(t *testing.T) {
	tests := map[Align]string{
		AlignLeft:    "L",
		AlignCenter:  "C",
		AlignRight:   "R",
		AlignJustify: "J",
		"":           "L",
	}
	for in, want := range tests {
		if got := alignStr(in); got != want {
			t.Errorf("alignStr(%q) = %q, want %q", in, got, want)
		}
	}
}
