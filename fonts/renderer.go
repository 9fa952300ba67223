package fonts

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/wudi/pdfmarkup/pdfdoc"
)

// TextRenderer draws one line of text onto a page with its baseline
// starting at x,y in page space.
type TextRenderer interface {
	// Supports reports whether text can be drawn without losing glyphs.
	Supports(text string) bool
	Measure(text string, size float64) float64
	Draw(p *pdfdoc.Page, text string, x, y, size float64, c color.RGBA, opacity float64) error
}

// ErrNothingToDraw is returned when text reduces to nothing drawable.
var ErrNothingToDraw = errors.New("no drawable glyphs")

// Native draws with the built-in Helvetica. Glyphs outside printable
// ASCII are dropped.
type Native struct {
	Metrics *Helvetica
}

// NewNative returns a native renderer.
func NewNative() *Native { return &Native{Metrics: NewHelvetica()} }

func (n *Native) Supports(text string) bool { return Covers(text) }

func (n *Native) Measure(text string, size float64) float64 { return n.Metrics.Width(text, size) }

func (n *Native) Draw(p *pdfdoc.Page, text string, x, y, size float64, c color.RGBA, opacity float64) error {
	text = ASCIIOnly(text)
	if text == "" {
		return ErrNothingToDraw
	}
	p.DrawText(text, x, y, size, c, opacity)
	return nil
}

// Raster draws text as an embedded image.
type Raster struct {
	R *Rasterizer
}

func (r *Raster) Supports(text string) bool { return r.R.Covers(text) }

func (r *Raster) Measure(text string, size float64) float64 { return r.R.Measure(text, size) }

func (r *Raster) Draw(p *pdfdoc.Page, text string, x, y, size float64, c color.RGBA, opacity float64) error {
	bm, err := r.Image(text, size, c)
	if err != nil {
		return err
	}
	p.DrawImage(bm.Bitmap, x, y-bm.Descent, bm.Width, bm.Height, opacity)
	return nil
}

// PlacedBitmap is rasterized text encoded for embedding.
type PlacedBitmap struct {
	Bitmap  *pdfdoc.Bitmap
	Width   float64
	Height  float64
	Descent float64
}

// Image rasterizes and encodes text.
func (r *Raster) Image(text string, size float64, c color.RGBA) (*PlacedBitmap, error) {
	out, err := r.R.Render(text, size, c)
	if err != nil {
		return nil, err
	}
	bm, err := pdfdoc.NewBitmap(out.Image)
	if err != nil {
		return nil, err
	}
	return &PlacedBitmap{Bitmap: bm, Width: out.Width, Height: out.Height, Descent: out.Descent}, nil
}

// Selector picks the native path for text the built-in font covers and
// the raster path otherwise. When rasterization fails it falls back to the
// native path, dropping unsupported glyphs.
type Selector struct {
	Native *Native
	Raster *Raster
}

// NewSelector wires a selector over r. A nil r disables the raster path.
func NewSelector(r *Rasterizer) *Selector {
	s := &Selector{Native: NewNative()}
	if r != nil {
		s.Raster = &Raster{R: r}
	}
	return s
}

func (s *Selector) Supports(text string) bool {
	return s.Native.Supports(text) || (s.Raster != nil && s.Raster.Supports(text))
}

func (s *Selector) pick(text string) TextRenderer {
	if s.Native.Supports(text) || s.Raster == nil {
		return s.Native
	}
	return s.Raster
}

func (s *Selector) Measure(text string, size float64) float64 {
	return s.pick(text).Measure(text, size)
}

func (s *Selector) Draw(p *pdfdoc.Page, text string, x, y, size float64, c color.RGBA, opacity float64) error {
	r := s.pick(text)
	err := r.Draw(p, text, x, y, size, c, opacity)
	if err == nil || r == TextRenderer(s.Native) {
		return err
	}
	if ferr := s.Native.Draw(p, text, x, y, size, c, opacity); ferr != nil {
		return fmt.Errorf("raster text: %w", err)
	}
	return nil
}
