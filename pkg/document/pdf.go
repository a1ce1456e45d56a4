package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"

	"github.com/jung-kurt/gofpdf"

	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/geom"
)

// Option configures a PDF builder.
type Option func(*pdfConfig)

type pdfConfig struct {
	size     Size
	compress bool
	title    string
}

// WithPageSize sets the page size. Non-positive dimensions are ignored.
func WithPageSize(s Size) Option {
	return func(c *pdfConfig) {
		if s.W > 0 && s.H > 0 {
			c.size = s
		}
	}
}

// WithCompression toggles stream compression (on by default).
func WithCompression(on bool) Option { return func(c *pdfConfig) { c.compress = on } }

// WithTitle sets the document title metadata.
func WithTitle(title string) Option { return func(c *pdfConfig) { c.title = title } }

// PDF is a single-page Builder backed by gofpdf.
type PDF struct {
	mu   sync.Mutex
	pdf  *gofpdf.Fpdf
	w    io.Writer
	size Size
	tr   func(string) string
	done bool
}

// NewPDF starts a one-page document that Finalize writes to w.
func NewPDF(w io.Writer, opts ...Option) *PDF {
	cfg := pdfConfig{size: LetterSize, compress: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Portrait keeps Wd and Ht as given; "L" would swap them.
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: cfg.size.W, Ht: cfg.size.H},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCellMargin(0)
	pdf.SetCompression(cfg.compress)
	pdf.SetCreator("fabricpdf", true)
	if cfg.title != "" {
		pdf.SetTitle(cfg.title, true)
	}
	pdf.AddPage()

	return &PDF{
		pdf:  pdf,
		w:    w,
		size: cfg.size,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// PageSize returns the page size in points.
func (p *PDF) PageSize() Size { return p.size }

// FillPage paints the whole page.
func (p *PDF) FillPage(c geom.Color) error {
	return p.fill(c, func() {
		p.pdf.Rect(0, 0, p.size.W, p.size.H, "F")
	})
}

// FillCircle paints a disc.
func (p *PDF) FillCircle(center geom.Point, radius float64, c geom.Color) error {
	return p.fill(c, func() {
		p.pdf.Circle(center.X, center.Y, radius, "F")
	})
}

// FillRect paints an axis-aligned rectangle.
func (p *PDF) FillRect(r geom.Rect, c geom.Color) error {
	return p.fill(c, func() {
		p.pdf.Rect(r.X, r.Y, r.W, r.H, "F")
	})
}

// FillPath paints the closed polygon through points.
func (p *PDF) FillPath(points []geom.Point, c geom.Color) error {
	if len(points) < 3 {
		return errors.New(errors.ErrCodeRender, "path needs at least 3 points, got %d", len(points))
	}
	pts := make([]gofpdf.PointType, len(points))
	for i, pt := range points {
		pts[i] = gofpdf.PointType{X: pt.X, Y: pt.Y}
	}
	return p.fill(c, func() {
		p.pdf.Polygon(pts, "F")
	})
}

// Text draws a wrapped text block with its top-left corner at pt.
func (p *PDF) Text(pt geom.Point, text string, style TextStyle) error {
	if style.Size <= 0 {
		return errors.New(errors.ErrCodeRender, "font size must be positive, got %g", style.Size)
	}
	font := style.Font
	if font == "" {
		font = DefaultFont
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return ErrFinalized
	}

	p.pdf.SetFont(font, "", style.Size)
	p.pdf.SetTextColor(int(style.Color.R), int(style.Color.G), int(style.Color.B))
	p.pdf.SetAlpha(style.Color.A, "Normal")
	p.pdf.SetXY(pt.X, pt.Y)
	p.pdf.MultiCell(max(style.Width, 0), LineHeight*style.Size, p.tr(text), "", alignStr(style.Align), false)
	p.pdf.SetAlpha(1, "Normal")
	return p.check("text")
}

// Image embeds encoded image bytes scaled into r. Identical bytes are
// embedded once no matter how often they are drawn.
func (p *PDF) Image(r geom.Rect, data []byte) error {
	normalized, imageType, err := normalizeImage(data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "image")
	}
	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:])
	opts := gofpdf.ImageOptions{ImageType: imageType, AllowNegativePosition: true}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return ErrFinalized
	}

	// gofpdf returns the existing entry when name is already registered.
	p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(normalized))
	if err := p.check("image"); err != nil {
		return err
	}
	p.pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, opts, 0, "")
	return p.check("image")
}

// Finalize writes the document to the sink.
func (p *PDF) Finalize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return ErrFinalized
	}
	p.done = true

	if err := p.check("finalize"); err != nil {
		return err
	}
	if err := p.pdf.Output(p.w); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "write pdf")
	}
	return nil
}

func (p *PDF) fill(c geom.Color, draw func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return ErrFinalized
	}

	p.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	p.pdf.SetAlpha(c.A, "Normal")
	draw()
	p.pdf.SetAlpha(1, "Normal")
	return p.check("fill")
}

// check surfaces gofpdf's sticky error state.
func (p *PDF) check(op string) error {
	if err := p.pdf.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "pdf %s", op)
	}
	return nil
}

func alignStr(a Align) string {
	switch a {
	case AlignCenter:
		return "C"
	case AlignRight:
		return "R"
	case AlignJustify:
		return "J"
	}
	return "L"
}

// Ensure PDF implements Builder.
var _ Builder = (*PDF)(nil)
