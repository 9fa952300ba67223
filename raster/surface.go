// Package raster draws annotations onto an in-memory pixel surface for the
// interactive preview.
package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"github.com/wudi/pdfmarkup/coords"
)

// CompositeOp selects how source pixels combine with the surface.
type CompositeOp int

const (
	// SourceOver paints the source on top of the destination.
	SourceOver CompositeOp = iota
	// DestinationOut removes destination pixels where the source is drawn.
	DestinationOut
	// Multiply darkens the destination by the source color.
	Multiply
)

type state struct {
	transform coords.Matrix
	op        CompositeOp
	alpha     float64
}

// Surface is an RGBA pixel canvas with a current transform mapping user
// space (canvas CSS pixels) to device pixels. Colors passed to drawing
// methods are straight, not premultiplied, RGBA.
type Surface struct {
	img   *image.RGBA
	cur   state
	stack []state
}

// NewSurface allocates a transparent w x h surface with the identity
// transform.
func NewSurface(w, h int) *Surface {
	return &Surface{
		img: image.NewRGBA(image.Rect(0, 0, w, h)),
		cur: state{transform: coords.Identity(), alpha: 1},
	}
}

// Image returns the backing pixels.
func (s *Surface) Image() *image.RGBA { return s.img }

// Transform returns the current transform.
func (s *Surface) Transform() coords.Matrix { return s.cur.transform }

// SetTransform replaces the current transform, typically with a device
// pixel ratio scale.
func (s *Surface) SetTransform(m coords.Matrix) { s.cur.transform = m }

// Concat applies m before the current transform.
func (s *Surface) Concat(m coords.Matrix) { s.cur.transform = m.Multiply(s.cur.transform) }

// SetComposite sets the compositing operation for subsequent draws.
func (s *Surface) SetComposite(op CompositeOp) { s.cur.op = op }

// SetAlpha sets the global alpha for subsequent draws.
func (s *Surface) SetAlpha(a float64) { s.cur.alpha = math.Max(0, math.Min(1, a)) }

// Save pushes the transform, composite operation and alpha.
func (s *Surface) Save() { s.stack = append(s.stack, s.cur) }

// Restore pops the state pushed by the matching Save.
func (s *Surface) Restore() {
	if n := len(s.stack); n > 0 {
		s.cur = s.stack[n-1]
		s.stack = s.stack[:n-1]
	}
}

// Clear erases every device pixel. The transform survives: it is saved,
// reset to identity for the clear and restored.
func (s *Surface) Clear() {
	s.Save()
	s.cur = state{transform: coords.Identity(), alpha: 1}
	for i := range s.img.Pix {
		s.img.Pix[i] = 0
	}
	s.Restore()
}

// fill rasterizes polygons given in user space with the nonzero rule and
// composites c through the resulting coverage.
func (s *Surface) fill(polys [][]coords.Point, c color.RGBA) {
	b := s.img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	drawn := false
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		dev := make([]coords.Point, len(poly))
		for i, p := range poly {
			dev[i] = s.cur.transform.Transform(p)
		}
		// Overlapping pieces must share orientation or they cancel out.
		if signedArea(dev) < 0 {
			for i, j := 0, len(dev)-1; i < j; i, j = i+1, j-1 {
				dev[i], dev[j] = dev[j], dev[i]
			}
		}
		z.MoveTo(float32(dev[0].X), float32(dev[0].Y))
		for _, p := range dev[1:] {
			z.LineTo(float32(p.X), float32(p.Y))
		}
		z.ClosePath()
		drawn = true
	}
	if !drawn {
		return
	}
	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	s.composite(mask, c)
}

func signedArea(poly []coords.Point) float64 {
	var a float64
	for i := range poly {
		p, q := poly[i], poly[(i+1)%len(poly)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

func (s *Surface) composite(mask *image.Alpha, c color.RGBA) {
	ca := float64(c.A) / 255 * s.cur.alpha
	sr, sg, sb := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			m := mask.AlphaAt(x, y).A
			if m == 0 {
				continue
			}
			sa := ca * float64(m) / 255
			i := s.img.PixOffset(x, y)
			d := s.img.Pix[i : i+4 : i+4]
			dr, dg, db, da := float64(d[0])/255, float64(d[1])/255, float64(d[2])/255, float64(d[3])/255
			var r, g, bl, a float64
			switch s.cur.op {
			case DestinationOut:
				r, g, bl, a = dr*(1-sa), dg*(1-sa), db*(1-sa), da*(1-sa)
			case Multiply:
				blend := func(sc, dc float64) float64 { return sa*sc*(1-da) + sa*sc*dc + (1-sa)*dc }
				r, g, bl, a = blend(sr, dr), blend(sg, dg), blend(sb, db), sa+da*(1-sa)
			default:
				r, g, bl, a = sr*sa+dr*(1-sa), sg*sa+dg*(1-sa), sb*sa+db*(1-sa), sa+da*(1-sa)
			}
			d[0], d[1], d[2], d[3] = unit(r), unit(g), unit(bl), unit(a)
		}
	}
}

func unit(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// FillRect fills an axis-aligned rectangle in user space.
func (s *Surface) FillRect(x, y, w, h float64, c color.RGBA) {
	s.fill([][]coords.Point{{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}}, c)
}

// FillCircle fills a disc in user space.
func (s *Surface) FillCircle(cx, cy, r float64, c color.RGBA) {
	s.fill([][]coords.Point{s.circle(cx, cy, r)}, c)
}

// StrokeCircle outlines a circle with a pen of the given width.
func (s *Surface) StrokeCircle(cx, cy, r, width float64, c color.RGBA) {
	pts := s.circle(cx, cy, r)
	s.StrokePolyline(append(pts, pts[0]), width, c)
}

// StrokeRect outlines a rectangle.
func (s *Surface) StrokeRect(x, y, w, h, width float64, c color.RGBA) {
	s.StrokePolyline([]coords.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}, {X: x, Y: y}}, width, c)
}

// StrokePolyline draws a path through pts with round caps and joins. The
// path is filled as one shape, so a translucent stroke does not darken
// where it overlaps itself.
func (s *Surface) StrokePolyline(pts []coords.Point, width float64, c color.RGBA) {
	if len(pts) == 0 || width <= 0 {
		return
	}
	r := width / 2
	var polys [][]coords.Point
	for i, p := range pts {
		polys = append(polys, s.circle(p.X, p.Y, r))
		if i == 0 {
			continue
		}
		a := pts[i-1]
		dx, dy := p.X-a.X, p.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*r, dx/l*r
		polys = append(polys, []coords.Point{
			{X: a.X + nx, Y: a.Y + ny},
			{X: p.X + nx, Y: p.Y + ny},
			{X: p.X - nx, Y: p.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		})
	}
	s.fill(polys, c)
}

// circle approximates a circle with enough vertices for its device size.
func (s *Surface) circle(cx, cy, r float64) []coords.Point {
	n := int(r * s.cur.transform.ScaleFactor() * 2)
	if n < 12 {
		n = 12
	}
	if n > 128 {
		n = 128
	}
	pts := make([]coords.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = coords.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return pts
}

// DrawImage draws img scaled into the user-space rectangle x,y,w,h with
// source-over compositing and the current alpha.
func (s *Surface) DrawImage(img image.Image, x, y, w, h float64) {
	sb := img.Bounds()
	if sb.Empty() || w <= 0 || h <= 0 {
		return
	}
	kx, ky := w/float64(sb.Dx()), h/float64(sb.Dy())
	m := s.cur.transform
	// Source pixel (sx,sy) lands at user (x+kx*(sx-minX), y+ky*(sy-minY)).
	ox, oy := x-kx*float64(sb.Min.X), y-ky*float64(sb.Min.Y)
	aff := f64.Aff3{
		m[0] * kx, m[2] * ky, m[0]*ox + m[2]*oy + m[4],
		m[1] * kx, m[3] * ky, m[1]*ox + m[3]*oy + m[5],
	}
	var opts *draw.Options
	if s.cur.alpha < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: unit(s.cur.alpha)})}
	}
	draw.BiLinear.Transform(s.img, aff, img, sb, draw.Over, opts)
}
