package pdfdoc

import (
	"context"
	"fmt"
	"image/color"
)

// Size is a page size in points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Page is one output page. Source is the zero-based index of the original
// page it overlays, or -1 for a page created from scratch.
type Page struct {
	Source   int
	Width    float64
	Height   float64
	Rotation int
	Ops      []Op
}

// Document is the original file plus one display list per output page.
type Document struct {
	original []byte
	pages    []*Page
}

// New builds a document over original with one page per size.
func New(original []byte, sizes []Size) *Document {
	d := &Document{original: original, pages: make([]*Page, len(sizes))}
	for i, s := range sizes {
		d.pages[i] = &Page{Source: i, Width: s.Width, Height: s.Height}
	}
	return d
}

// Open inspects original for its page sizes and builds a document over it.
func Open(ctx context.Context, original []byte) (*Document, error) {
	sizes, err := Inspect(ctx, original)
	if err != nil {
		return nil, err
	}
	return New(original, sizes), nil
}

// Original returns the source bytes.
func (d *Document) Original() []byte { return d.original }

// NumPages returns the number of output pages.
func (d *Document) NumPages() int { return len(d.pages) }

// Page returns the zero-based output page i.
func (d *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= len(d.pages) {
		return nil, fmt.Errorf("page index %d out of range [0,%d)", i, len(d.pages))
	}
	return d.pages[i], nil
}

// Pages returns the output pages in order.
func (d *Document) Pages() []*Page { return d.pages }

// NewPage creates a blank page that is not yet part of the document.
func NewPage(width, height float64) *Page {
	return &Page{Source: -1, Width: width, Height: height}
}

// InsertPages splices pages in before zero-based index at. at == NumPages
// appends.
func (d *Document) InsertPages(at int, pages ...*Page) error {
	if at < 0 || at > len(d.pages) {
		return fmt.Errorf("insert index %d out of range [0,%d]", at, len(d.pages))
	}
	out := make([]*Page, 0, len(d.pages)+len(pages))
	out = append(out, d.pages[:at]...)
	out = append(out, pages...)
	out = append(out, d.pages[at:]...)
	d.pages = out
	return nil
}

// SetRotation sets the clockwise display rotation baked into the page.
func (p *Page) SetRotation(deg int) error {
	switch deg {
	case 0, 90, 180, 270:
		p.Rotation = deg
		return nil
	}
	return fmt.Errorf("unsupported rotation %d", deg)
}

// DrawLine appends a segment.
func (p *Page) DrawLine(x1, y1, x2, y2 float64, s Stroke) {
	p.Ops = append(p.Ops, Line{X1: x1, Y1: y1, X2: x2, Y2: y2, Stroke: s})
}

// FillRect appends a filled rectangle.
func (p *Page) FillRect(x, y, w, h float64, f Fill) {
	p.Ops = append(p.Ops, Rect{X: x, Y: y, W: w, H: h, Fill: &f})
}

// StrokeRect appends an outlined rectangle.
func (p *Page) StrokeRect(x, y, w, h float64, s Stroke) {
	p.Ops = append(p.Ops, Rect{X: x, Y: y, W: w, H: h, Stroke: &s})
}

// FillCircle appends a filled circle.
func (p *Page) FillCircle(x, y, r float64, f Fill) {
	p.Ops = append(p.Ops, Circle{X: x, Y: y, R: r, Fill: &f})
}

// StrokeCircle appends an outlined circle.
func (p *Page) StrokeCircle(x, y, r float64, s Stroke) {
	p.Ops = append(p.Ops, Circle{X: x, Y: y, R: r, Stroke: &s})
}

// DrawText appends a Helvetica text run with its baseline at x,y.
func (p *Page) DrawText(text string, x, y, size float64, c color.RGBA, opacity float64) {
	p.Ops = append(p.Ops, Text{X: x, Y: y, Text: text, Size: size, Color: c, Opacity: opacity})
}

// DrawImage appends a bitmap placement.
func (p *Page) DrawImage(b *Bitmap, x, y, w, h, opacity float64) {
	p.Ops = append(p.Ops, Image{X: x, Y: y, W: w, H: h, Bitmap: b, Opacity: opacity})
}
