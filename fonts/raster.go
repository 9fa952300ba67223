package fonts

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Bitmap is a line of text rasterized onto a transparent canvas. Width,
// Height and Descent are in points; the image itself is scaled up by the
// rasterizer's scale factor.
type Bitmap struct {
	Image   *image.RGBA
	Width   float64
	Height  float64
	Descent float64
}

// Rasterizer draws text with an outline font onto images. It is the
// fallback for text the built-in PDF font cannot encode.
type Rasterizer struct {
	mu     sync.Mutex
	font   *opentype.Font
	shaper *Shaper
	faces  map[float64]font.Face
	scale  float64
}

// ErrMissingGlyphs is returned when the outline font has no glyph for a
// character of the text.
var ErrMissingGlyphs = errors.New("font has no glyph")

// cjkSample is checked by HasCJK.
const cjkSample = "日本語かなカナ"

// DefaultRasterScale is the supersampling factor applied to rasterized
// text so that it stays crisp when the page is zoomed.
const DefaultRasterScale = 4

// NewRasterizer parses data as a TrueType/OpenType font. Nil data selects
// the bundled Go Regular font. scale <= 0 selects DefaultRasterScale.
func NewRasterizer(data []byte, scale float64) (*Rasterizer, error) {
	if len(data) == 0 {
		data = goregular.TTF
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	shaper, err := NewShaper(data)
	if err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = DefaultRasterScale
	}
	return &Rasterizer{font: f, shaper: shaper, faces: make(map[float64]font.Face), scale: scale}, nil
}

// LoadRasterizer reads the font at path, or uses the bundled font when
// path is empty.
func LoadRasterizer(path string, scale float64) (*Rasterizer, error) {
	if path == "" {
		return NewRasterizer(nil, scale)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	return NewRasterizer(data, scale)
}

// Scale returns the supersampling factor.
func (r *Rasterizer) Scale() float64 { return r.scale }

// Measure returns the shaped advance of text at size.
func (r *Rasterizer) Measure(text string, size float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shaper.Advance(text, size)
}

// Missing returns the characters of text the font has no glyph for.
// Whitespace and control characters are ignored.
func (r *Rasterizer) Missing(text string) []rune {
	var (
		buf     sfnt.Buffer
		missing []rune
	)
	for _, c := range text {
		if unicode.IsSpace(c) || unicode.IsControl(c) {
			continue
		}
		idx, err := r.font.GlyphIndex(&buf, c)
		if err != nil || idx == 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

// Covers reports whether every visible character of text has a glyph.
func (r *Rasterizer) Covers(text string) bool { return len(r.Missing(text)) == 0 }

// HasCJK reports whether the font can draw Japanese text.
func (r *Rasterizer) HasCJK() bool { return r.Covers(cjkSample) }

func (r *Rasterizer) face(px float64) (font.Face, error) {
	if f, ok := r.faces[px]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{Size: px, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	r.faces[px] = f
	return f, nil
}

// Render rasterizes one line of text at size points in color c.
func (r *Rasterizer) Render(text string, size float64, c color.Color) (*Bitmap, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", size)
	}
	if missing := r.Missing(text); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingGlyphs, string(missing))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	face, err := r.face(size * r.scale)
	if err != nil {
		return nil, err
	}
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	_, advance := font.BoundString(face, text)
	shaped := int(math.Ceil(r.shaper.Advance(text, size*r.scale)))
	w := advance.Ceil()
	if shaped > w {
		w = shaped
	}
	h := ascent + descent
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("text %q has no extent", text)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(text)
	return &Bitmap{
		Image:   img,
		Width:   float64(w) / r.scale,
		Height:  float64(h) / r.scale,
		Descent: float64(descent) / r.scale,
	}, nil
}

// Close releases cached faces.
func (r *Rasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for k, f := range r.faces {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close face %v: %w", k, err))
		}
		delete(r.faces, k)
	}
	return errors.Join(errs...)
}
