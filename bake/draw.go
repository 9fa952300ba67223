package bake

import (
	"fmt"
	"image/color"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/coords"
	"github.com/wudi/pdfmarkup/layout"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

// top maps a normalized point to top-down page points.
func (p *pageBaker) top(x, y float64) coords.Point {
	return coords.Point{X: x * p.w(), Y: y * p.h()}
}

func (p *pageBaker) line(a, b coords.Point, s pdfdoc.Stroke) {
	p.page.DrawLine(a.X, p.h()-a.Y, b.X, p.h()-b.Y, s)
}

func (p *pageBaker) polyline(pts []coords.Point, s pdfdoc.Stroke) {
	for i := 1; i < len(pts); i++ {
		p.line(pts[i-1], pts[i], s)
	}
}

func (p *pageBaker) segments(segs []annotation.Segment, s pdfdoc.Stroke) {
	for _, sg := range segs {
		p.line(sg.A, sg.B, s)
	}
}

// box returns the PDF-space lower-left corner and size of the top-down
// rectangle spanned by a and b.
func (p *pageBaker) box(a, b coords.Point) (x, y, w, h float64) {
	lo, w, h := annotation.Box(a, b)
	return lo.X, p.h() - lo.Y - h, w, h
}

// strokeBaker emits freehand strokes. Each pen segment is an independent
// line so width and color stay uniform along the stroke.
type strokeBaker struct{ *pageBaker }

func (s strokeBaker) points(st annotation.Stroke) []coords.Point {
	out := make([]coords.Point, len(st.Points))
	for i, sp := range st.Points {
		out[i] = s.top(sp.X, sp.Y)
	}
	return out
}

func (s strokeBaker) rect(st annotation.Stroke, f pdfdoc.Fill) {
	lo, hi := st.Bounds()
	x, y, w, h := s.box(s.top(lo.X, lo.Y), s.top(hi.X, hi.Y))
	s.page.FillRect(x, y, w, h, f)
}

func (s strokeBaker) Pen(st annotation.Stroke) error {
	s.polyline(s.points(st), pdfdoc.Stroke{Color: annotation.ParseColor(st.Color), Width: st.LineWidth(), Opacity: 1})
	return nil
}

// Eraser strokes only act on the preview surface; baked pages have
// nothing underneath to erase.
func (s strokeBaker) Eraser(annotation.Stroke) error { return nil }

func (s strokeBaker) Highlight(st annotation.Stroke) error {
	c := annotation.ParseColor(st.Color)
	if st.RectMode() {
		s.rect(st, pdfdoc.Fill{Color: c, Opacity: annotation.HighlightOpacity})
		return nil
	}
	s.polyline(s.points(st), pdfdoc.Stroke{Color: c, Width: st.LineWidth(), Opacity: annotation.HighlightOpacity})
	return nil
}

func (s strokeBaker) Redact(st annotation.Stroke) error {
	if st.RectMode() {
		s.rect(st, pdfdoc.Fill{Color: annotation.RedactColor, Opacity: 1})
		return nil
	}
	s.polyline(s.points(st), pdfdoc.Stroke{Color: annotation.RedactColor, Width: st.LineWidth(), Opacity: 1})
	return nil
}

// text draws a text annotation line by line from its top-left anchor.
// Annotations with a width are wrapped to it.
func (p *pageBaker) text(t annotation.TextAnnotation) error {
	size := t.Size()
	c := annotation.ParseColor(t.Color)
	anchor := p.top(t.X, t.Y)
	lines := t.Lines()
	if t.Width != nil && *t.Width > 0 {
		measure := func(s string) float64 { return p.e.text.Measure(s, size) }
		lines = layout.Wrap(t.Text, *t.Width*p.w(), measure)
	}
	var drawn int
	var firstErr error
	for i, line := range lines {
		if line == "" {
			continue
		}
		baseline := p.h() - anchor.Y - size - float64(i)*size*annotation.LineHeightFactor
		if err := p.e.text.Draw(p.page, line, anchor.X, baseline, size, c, 1); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("line %d: %w", i+1, err)
			}
			continue
		}
		drawn++
	}
	if drawn == 0 && firstErr != nil {
		return firstErr
	}
	if firstErr != nil {
		p.skip(p.number, "text-line", p.index, firstErr)
	}
	return nil
}

// shapeBaker emits vector shapes and stamps.
type shapeBaker struct{ *pageBaker }

func (s shapeBaker) ends(sh annotation.Shape) (coords.Point, coords.Point) {
	return s.top(sh.X1, sh.Y1), s.top(sh.X2, sh.Y2)
}

func stroke(c color.RGBA, w float64) pdfdoc.Stroke {
	return pdfdoc.Stroke{Color: c, Width: w, Opacity: 1}
}

func (s shapeBaker) Line(sh annotation.Shape) error {
	a, b := s.ends(sh)
	s.line(a, b, stroke(annotation.ParseColor(sh.Color), sh.LineWidth()))
	return nil
}

func (s shapeBaker) Rectangle(sh annotation.Shape) error {
	x, y, w, h := s.box(s.ends(sh))
	c := annotation.ParseColor(sh.Color)
	if sh.Fill {
		s.page.FillRect(x, y, w, h, pdfdoc.Fill{Color: c, Opacity: annotation.ShapeFillOpacity})
		return nil
	}
	s.page.StrokeRect(x, y, w, h, stroke(c, sh.LineWidth()))
	return nil
}

func (s shapeBaker) Circle(sh annotation.Shape) error {
	center, r := annotation.Circle(s.ends(sh))
	c := annotation.ParseColor(sh.Color)
	if sh.Fill {
		s.page.FillCircle(center.X, s.h()-center.Y, r, pdfdoc.Fill{Color: c, Opacity: annotation.ShapeFillOpacity})
		return nil
	}
	s.page.StrokeCircle(center.X, s.h()-center.Y, r, stroke(c, sh.LineWidth()))
	return nil
}

func (s shapeBaker) Arrow(sh annotation.Shape) error {
	a, b := s.ends(sh)
	st := stroke(annotation.ParseColor(sh.Color), sh.LineWidth())
	s.line(a, b, st)
	head := annotation.ArrowHead(a, b, sh.LineWidth())
	s.segments(head[:], st)
	return nil
}

func (s shapeBaker) DoubleLine(sh annotation.Shape) error {
	a, b := s.ends(sh)
	rails := annotation.DoubleLine(a, b, sh.LineWidth())
	s.segments(rails[:], stroke(annotation.ParseColor(sh.Color), sh.LineWidth()))
	return nil
}

func (s shapeBaker) PolylineArrow(sh annotation.Shape) error {
	norm := sh.Path()
	pts := make([]coords.Point, len(norm))
	for i, q := range norm {
		pts[i] = s.top(q.X, q.Y)
	}
	st := stroke(annotation.ParseColor(sh.Color), sh.LineWidth())
	s.polyline(pts, st)
	head := annotation.ArrowHead(pts[len(pts)-2], pts[len(pts)-1], sh.LineWidth())
	s.segments(head[:], st)
	return nil
}

func (s shapeBaker) Stamp(sh annotation.Shape) error { return sh.AcceptStamp(stampBaker(s)) }

// stampBaker emits the stamp presets.
type stampBaker shapeBaker

func (s stampBaker) circle(sh annotation.Shape, hex string) (coords.Point, float64, color.RGBA) {
	a, b := shapeBaker(s).ends(sh)
	lo, w, h := annotation.Box(a, b)
	center := coords.Point{X: lo.X + w/2, Y: lo.Y + h/2}
	r := annotation.StampRadius * min(w, h)
	c := annotation.ParseColor(hex)
	s.page.StrokeCircle(center.X, s.h()-center.Y, r, stroke(c, sh.LineWidth()))
	return center, r, c
}

func (s stampBaker) Approved(sh annotation.Shape) error {
	center, r, c := s.circle(sh, annotation.StampApprovedColor)
	s.polyline(annotation.CheckMark(center, r), stroke(c, sh.LineWidth()*1.5))
	return nil
}

func (s stampBaker) Rejected(sh annotation.Shape) error {
	center, r, c := s.circle(sh, annotation.StampRejectedColor)
	cross := annotation.Cross(center, r)
	s.segments(cross[:], stroke(c, sh.LineWidth()*1.5))
	return nil
}

func (s stampBaker) Date(sh annotation.Shape) error {
	center, r, c := s.circle(sh, annotation.StampDateColor)
	return s.label(annotation.StampLabel(sh, s.e.now()), center, r*0.35, c)
}

func (s stampBaker) Image(sh annotation.Shape) error {
	img, err := annotation.DecodeImage(sh.StampImage)
	if err != nil {
		return err
	}
	x, y, w, h := shapeBaker(s).box(shapeBaker(s).ends(sh))
	bm, err := pdfdoc.NewBitmap(img)
	if err != nil {
		return err
	}
	iw, ih := annotation.FitImage(float64(bm.Width), float64(bm.Height), w, h)
	s.page.DrawImage(bm, x+(w-iw)/2, y+(h-ih)/2, iw, ih, 1)
	s.page.StrokeRect(x, y, w, h, stroke(annotation.ParseColor(annotation.StampBoxColor), sh.LineWidth()))
	return nil
}

func (s stampBaker) Box(sh annotation.Shape) error {
	a, b := shapeBaker(s).ends(sh)
	x, y, w, h := shapeBaker(s).box(a, b)
	c := annotation.ParseColor(annotation.StampBoxColor)
	s.page.StrokeRect(x, y, w, h, stroke(c, sh.LineWidth()))
	if sh.StampText == "" {
		return nil
	}
	lo, bw, bh := annotation.Box(a, b)
	return s.label(sh.StampText, coords.Point{X: lo.X + bw/2, Y: lo.Y + bh/2}, bh*0.4, c)
}

// label centres text on the top-down point c.
func (s stampBaker) label(text string, c coords.Point, size float64, col color.RGBA) error {
	if text == "" || size <= 0 {
		return nil
	}
	w := s.e.text.Measure(text, size)
	baseline := s.h() - c.Y - size/3
	return s.e.text.Draw(s.page, text, c.X-w/2, baseline, size, col, 1)
}
