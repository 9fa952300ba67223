package raster

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/coords"
	"github.com/wudi/pdfmarkup/fonts"
	"github.com/wudi/pdfmarkup/observability"
)

// Entities is the annotation state of one page.
type Entities struct {
	Strokes []annotation.Stroke
	Texts   []annotation.TextAnnotation
	Shapes  []annotation.Shape
	// Zoom scales font sizes; zero means 1.
	Zoom float64
}

// Renderer replays page annotations onto a Surface. It holds no per-page
// state, so one Renderer serves every page of a session.
type Renderer struct {
	text   *fonts.Rasterizer
	logger observability.Logger
	now    func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger for skipped annotations.
func WithLogger(l observability.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithClock overrides the clock used for undated date stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// NewRenderer builds a renderer drawing text with text. A nil text
// rasterizer skips text annotations and stamp labels.
func NewRenderer(text *fonts.Rasterizer, opts ...Option) *Renderer {
	r := &Renderer{text: text, logger: observability.NopLogger{}, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Redraw reproduces e on s, where width and height are the canvas size in
// user space. With clearFirst the surface is cleared first, keeping its
// transform, so calling Redraw twice yields identical pixels. Annotations
// that fail to draw are logged and skipped; the joined errors are
// returned after everything else has been drawn.
func (r *Renderer) Redraw(s *Surface, e Entities, width, height float64, clearFirst bool) error {
	if clearFirst {
		s.Clear()
	}
	zoom := e.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	p := &painter{r: r, s: s, w: width, h: height, zoom: zoom}
	var errs []error
	for i, st := range e.Strokes {
		s.Save()
		if err := st.Accept(p); err != nil {
			errs = append(errs, r.skip("stroke", i, err))
		}
		s.Restore()
	}
	for i, t := range e.Texts {
		if err := p.text(t); err != nil {
			errs = append(errs, r.skip("text", i, err))
		}
	}
	for i, sh := range e.Shapes {
		s.Save()
		if err := sh.Accept(p); err != nil {
			errs = append(errs, r.skip("shape", i, err))
		}
		s.Restore()
	}
	return errors.Join(errs...)
}

func (r *Renderer) skip(kind string, index int, err error) error {
	r.logger.Warn("annotation skipped", observability.String("kind", kind), observability.Int("index", index), observability.Error("error", err))
	return fmt.Errorf("%s %d: %w", kind, index, err)
}

// painter draws single entities in canvas pixels. It implements the
// stroke, shape and stamp visitors.
type painter struct {
	r    *Renderer
	s    *Surface
	w, h float64
	zoom float64
}

func (p *painter) pt(x, y float64) coords.Point {
	px, py := coords.Denormalize(coords.Point{X: x, Y: y}, p.w, p.h)
	return coords.Point{X: px, Y: py}
}

func (p *painter) path(points []annotation.StrokePoint) []coords.Point {
	out := make([]coords.Point, len(points))
	for i, sp := range points {
		out[i] = p.pt(sp.X, sp.Y)
	}
	return out
}

func (p *painter) bounds(st annotation.Stroke) (x, y, w, h float64) {
	lo, hi := st.Bounds()
	a, b := p.pt(lo.X, lo.Y), p.pt(hi.X, hi.Y)
	return a.X, a.Y, b.X - a.X, b.Y - a.Y
}

func (p *painter) Pen(st annotation.Stroke) error {
	p.s.StrokePolyline(p.path(st.Points), st.LineWidth(), annotation.ParseColor(st.Color))
	return nil
}

func (p *painter) Eraser(st annotation.Stroke) error {
	p.s.SetComposite(DestinationOut)
	p.s.StrokePolyline(p.path(st.Points), st.LineWidth(), color.RGBA{A: 255})
	return nil
}

func (p *painter) Highlight(st annotation.Stroke) error {
	p.s.SetComposite(Multiply)
	p.s.SetAlpha(annotation.HighlightOpacity)
	c := annotation.ParseColor(st.Color)
	if st.RectMode() {
		x, y, w, h := p.bounds(st)
		p.s.FillRect(x, y, w, h, c)
		return nil
	}
	p.s.StrokePolyline(p.path(st.Points), st.LineWidth(), c)
	return nil
}

func (p *painter) Redact(st annotation.Stroke) error {
	if st.RectMode() {
		x, y, w, h := p.bounds(st)
		p.s.FillRect(x, y, w, h, annotation.RedactColor)
		return nil
	}
	p.s.StrokePolyline(p.path(st.Points), st.LineWidth(), annotation.RedactColor)
	return nil
}

func (p *painter) text(t annotation.TextAnnotation) error {
	if p.r.text == nil {
		return nil
	}
	size := t.Size() * p.zoom
	c := annotation.ParseColor(t.Color)
	origin := p.pt(t.X, t.Y)
	for i, line := range t.Lines() {
		if line == "" {
			continue
		}
		bm, err := p.r.text.Render(line, size, c)
		if err != nil {
			return err
		}
		p.s.DrawImage(bm.Image, origin.X, origin.Y+float64(i)*size*annotation.LineHeightFactor, bm.Width, bm.Height)
	}
	return nil
}

func (p *painter) Line(sh annotation.Shape) error {
	p.s.StrokePolyline([]coords.Point{p.pt(sh.X1, sh.Y1), p.pt(sh.X2, sh.Y2)}, sh.LineWidth(), annotation.ParseColor(sh.Color))
	return nil
}

func (p *painter) box(sh annotation.Shape) (coords.Point, float64, float64) {
	return annotation.Box(p.pt(sh.X1, sh.Y1), p.pt(sh.X2, sh.Y2))
}

func (p *painter) Rectangle(sh annotation.Shape) error {
	lo, w, h := p.box(sh)
	c := annotation.ParseColor(sh.Color)
	if sh.Fill {
		p.s.SetAlpha(annotation.ShapeFillOpacity)
		p.s.FillRect(lo.X, lo.Y, w, h, c)
		return nil
	}
	p.s.StrokeRect(lo.X, lo.Y, w, h, sh.LineWidth(), c)
	return nil
}

func (p *painter) Circle(sh annotation.Shape) error {
	center, r := annotation.Circle(p.pt(sh.X1, sh.Y1), p.pt(sh.X2, sh.Y2))
	c := annotation.ParseColor(sh.Color)
	if sh.Fill {
		p.s.SetAlpha(annotation.ShapeFillOpacity)
		p.s.FillCircle(center.X, center.Y, r, c)
		return nil
	}
	p.s.StrokeCircle(center.X, center.Y, r, sh.LineWidth(), c)
	return nil
}

func (p *painter) segments(segs []annotation.Segment, width float64, c color.RGBA) {
	for _, sg := range segs {
		p.s.StrokePolyline([]coords.Point{sg.A, sg.B}, width, c)
	}
}

func (p *painter) Arrow(sh annotation.Shape) error {
	a, b := p.pt(sh.X1, sh.Y1), p.pt(sh.X2, sh.Y2)
	c := annotation.ParseColor(sh.Color)
	p.s.StrokePolyline([]coords.Point{a, b}, sh.LineWidth(), c)
	head := annotation.ArrowHead(a, b, sh.LineWidth())
	p.segments(head[:], sh.LineWidth(), c)
	return nil
}

func (p *painter) DoubleLine(sh annotation.Shape) error {
	rails := annotation.DoubleLine(p.pt(sh.X1, sh.Y1), p.pt(sh.X2, sh.Y2), sh.LineWidth())
	p.segments(rails[:], sh.LineWidth(), annotation.ParseColor(sh.Color))
	return nil
}

func (p *painter) PolylineArrow(sh annotation.Shape) error {
	norm := sh.Path()
	pts := make([]coords.Point, len(norm))
	for i, q := range norm {
		pts[i] = p.pt(q.X, q.Y)
	}
	c := annotation.ParseColor(sh.Color)
	p.s.StrokePolyline(pts, sh.LineWidth(), c)
	head := annotation.ArrowHead(pts[len(pts)-2], pts[len(pts)-1], sh.LineWidth())
	p.segments(head[:], sh.LineWidth(), c)
	return nil
}

func (p *painter) Stamp(sh annotation.Shape) error { return sh.AcceptStamp(p) }

func (p *painter) stampCircle(sh annotation.Shape, hex string) (coords.Point, float64, color.RGBA) {
	lo, w, h := p.box(sh)
	center := coords.Point{X: lo.X + w/2, Y: lo.Y + h/2}
	r := annotation.StampRadius * min(w, h)
	c := annotation.ParseColor(hex)
	p.s.StrokeCircle(center.X, center.Y, r, sh.LineWidth(), c)
	return center, r, c
}

func (p *painter) Approved(sh annotation.Shape) error {
	center, r, c := p.stampCircle(sh, annotation.StampApprovedColor)
	p.s.StrokePolyline(annotation.CheckMark(center, r), sh.LineWidth()*1.5, c)
	return nil
}

func (p *painter) Rejected(sh annotation.Shape) error {
	center, r, c := p.stampCircle(sh, annotation.StampRejectedColor)
	cross := annotation.Cross(center, r)
	p.segments(cross[:], sh.LineWidth()*1.5, c)
	return nil
}

func (p *painter) Date(sh annotation.Shape) error {
	center, r, c := p.stampCircle(sh, annotation.StampDateColor)
	return p.label(annotation.StampLabel(sh, p.r.now()), center, r*0.35, c)
}

func (p *painter) Image(sh annotation.Shape) error {
	img, err := annotation.DecodeImage(sh.StampImage)
	if err != nil {
		return err
	}
	lo, w, h := p.box(sh)
	b := img.Bounds()
	iw, ih := annotation.FitImage(float64(b.Dx()), float64(b.Dy()), w, h)
	p.s.DrawImage(img, lo.X+(w-iw)/2, lo.Y+(h-ih)/2, iw, ih)
	p.s.StrokeRect(lo.X, lo.Y, w, h, sh.LineWidth(), annotation.ParseColor(annotation.StampBoxColor))
	return nil
}

func (p *painter) Box(sh annotation.Shape) error {
	lo, w, h := p.box(sh)
	c := annotation.ParseColor(annotation.StampBoxColor)
	p.s.StrokeRect(lo.X, lo.Y, w, h, sh.LineWidth(), c)
	if sh.StampText == "" {
		return nil
	}
	return p.label(sh.StampText, coords.Point{X: lo.X + w/2, Y: lo.Y + h/2}, h*0.4, c)
}

// label draws text centred on c.
func (p *painter) label(text string, c coords.Point, size float64, col color.RGBA) error {
	if p.r.text == nil || text == "" || size <= 0 {
		return nil
	}
	bm, err := p.r.text.Render(text, size, col)
	if err != nil {
		return err
	}
	p.s.DrawImage(bm.Image, c.X-bm.Width/2, c.Y-bm.Height/2, bm.Width, bm.Height)
	return nil
}
