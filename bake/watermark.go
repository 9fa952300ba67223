package bake

import (
	"errors"
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/coords"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

const (
	defaultWatermarkSize    = 48
	defaultWatermarkOpacity = 0.3
)

// watermarkImage is the watermark text rasterized and rotated once per
// bake. Every instance on every page shares the embedded bitmap.
type watermarkImage struct {
	bitmap  *pdfdoc.Bitmap
	side    float64
	pattern annotation.WatermarkPattern
	density int
	opacity float64
}

func (e *Engine) watermarkImage(w annotation.Watermark) (*watermarkImage, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(w.Text) == "" {
		return nil, errors.New("watermark text is empty")
	}
	size := w.FontSize
	if size <= 0 {
		size = defaultWatermarkSize
	}
	txt, err := e.rasterizer.Render(w.Text, size, annotation.ParseColor(w.Color))
	if err != nil {
		return nil, err
	}
	rot := rotate(txt.Image, w.Angle)
	bm, err := pdfdoc.NewBitmap(rot)
	if err != nil {
		return nil, err
	}
	opacity := w.Opacity
	if opacity <= 0 {
		opacity = defaultWatermarkOpacity
	}
	return &watermarkImage{
		bitmap:  bm,
		side:    float64(rot.Bounds().Dx()) / e.rasterizer.Scale(),
		pattern: w.Pattern,
		density: w.EffectiveDensity(),
		opacity: opacity,
	}, nil
}

// rotate turns src counter-clockwise by deg around its centre onto a
// square canvas as wide as its diagonal, so no corner is clipped.
func rotate(src *image.RGBA, deg float64) *image.RGBA {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	d := math.Ceil(math.Hypot(w, h))
	dst := image.NewRGBA(image.Rect(0, 0, int(d), int(d)))
	a := deg * math.Pi / 180
	c, s := math.Cos(a), math.Sin(a)
	aff := f64.Aff3{
		c, s, d/2 - (w/2)*c - (h/2)*s,
		-s, c, d/2 + (w/2)*s - (h/2)*c,
	}
	draw.BiLinear.Transform(dst, aff, src, b, draw.Over, nil)
	return dst
}

func (p *pageBaker) watermark(m *watermarkImage) {
	for _, c := range watermarkCenters(m.pattern, m.density, p.w(), p.h()) {
		p.page.DrawImage(m.bitmap, c.X-m.side/2, c.Y-m.side/2, m.side, m.side, m.opacity)
	}
}

// watermarkCenters places instances on a w x h page: one at the centre,
// an N x N grid of cell centres, or tiles at a pitch of the shorter page
// side divided by the density with every other row offset by half a
// pitch.
func watermarkCenters(pattern annotation.WatermarkPattern, density int, w, h float64) []coords.Point {
	if density < 1 {
		density = 1
	}
	switch pattern {
	case annotation.PatternGrid:
		n := float64(density)
		out := make([]coords.Point, 0, density*density)
		for i := 0; i < density; i++ {
			for j := 0; j < density; j++ {
				out = append(out, coords.Point{X: (float64(i) + 0.5) * w / n, Y: (float64(j) + 0.5) * h / n})
			}
		}
		return out
	case annotation.PatternTile:
		pitch := math.Min(w, h) / float64(density)
		if pitch <= 0 {
			return nil
		}
		nx := max(1, int(math.Floor(w/pitch+1e-9)))
		ny := max(1, int(math.Floor(h/pitch+1e-9)))
		x0 := (w-float64(nx)*pitch)/2 + pitch/2
		y0 := (h-float64(ny)*pitch)/2 + pitch/2
		out := make([]coords.Point, 0, nx*ny)
		for j := 0; j < ny; j++ {
			shift := 0.0
			if j%2 == 1 {
				shift = pitch / 2
			}
			for i := 0; i < nx; i++ {
				out = append(out, coords.Point{X: x0 + float64(i)*pitch + shift, Y: y0 + float64(j)*pitch})
			}
		}
		return out
	}
	return []coords.Point{{X: w / 2, Y: h / 2}}
}
