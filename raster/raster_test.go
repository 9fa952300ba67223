package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/coords"
	"github.com/wudi/pdfmarkup/fonts"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := fonts.NewRasterizer(nil, 1)
	if err != nil {
		t.Fatalf("rasterizer: %v", err)
	}
	return NewRenderer(r, WithClock(func() time.Time { return time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) }))
}

func rectStroke(tool annotation.Tool, color string, x0, y0, x1, y1 float64) annotation.Stroke {
	return annotation.Stroke{Tool: tool, Color: color, Width: 2, Points: []annotation.StrokePoint{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}}
}

func sampleEntities() Entities {
	return Entities{
		Strokes: []annotation.Stroke{
			{Tool: annotation.ToolPen, Color: "#ff0000", Width: 3, Points: []annotation.StrokePoint{{X: 0.1, Y: 0.1}, {X: 0.9, Y: 0.9}}},
			rectStroke(annotation.ToolHighlight, "#ffff00", 0.2, 0.2, 0.6, 0.4),
			{Tool: annotation.ToolEraser, Width: 6, Points: []annotation.StrokePoint{{X: 0.5, Y: 0.1}, {X: 0.5, Y: 0.9}}},
			rectStroke(annotation.ToolRedact, "#000000", 0.7, 0.1, 0.9, 0.2),
		},
		Texts: []annotation.TextAnnotation{{X: 0.1, Y: 0.6, Text: "Hi\nthere", FontSize: 10, Color: "#0000ff"}},
		Shapes: []annotation.Shape{
			{Type: annotation.ShapeArrow, X1: 0.1, Y1: 0.8, X2: 0.5, Y2: 0.8, Color: "#00ff00", Width: 2},
			{Type: annotation.ShapeCircle, X1: 0.6, Y1: 0.6, X2: 0.8, Y2: 0.8, Color: "#00ffff", Fill: true},
			{Type: annotation.ShapeStamp, StampType: annotation.StampApproved, X1: 0.6, Y1: 0.0, X2: 0.8, Y2: 0.2, Width: 2},
			{Type: annotation.ShapeStamp, StampType: annotation.StampDate, X1: 0.0, Y1: 0.0, X2: 0.2, Y2: 0.2, Width: 2},
		},
	}
}

func TestRedrawIsIdempotent(t *testing.T) {
	r := newRenderer(t)
	s := NewSurface(200, 200)
	s.SetTransform(coords.Scale(2, 2))
	e := sampleEntities()
	if err := r.Redraw(s, e, 100, 100, true); err != nil {
		t.Fatalf("first redraw: %v", err)
	}
	first := append([]byte(nil), s.Image().Pix...)
	if err := r.Redraw(s, e, 100, 100, true); err != nil {
		t.Fatalf("second redraw: %v", err)
	}
	if !bytes.Equal(first, s.Image().Pix) {
		t.Fatalf("redraw is not idempotent")
	}
}

func TestClearPreservesTransform(t *testing.T) {
	s := NewSurface(10, 10)
	s.SetTransform(coords.Scale(2, 2))
	s.FillRect(0, 0, 5, 5, color.RGBA{R: 255, A: 255})
	s.Clear()
	if s.Transform() != coords.Scale(2, 2) {
		t.Fatalf("transform lost: %v", s.Transform())
	}
	for _, v := range s.Image().Pix {
		if v != 0 {
			t.Fatalf("surface not cleared")
		}
	}
	// The scaled transform still maps a 5x5 user rect onto the whole surface.
	s.FillRect(0, 0, 5, 5, color.RGBA{R: 255, A: 255})
	if got := s.Image().RGBAAt(9, 9); got.A != 255 {
		t.Fatalf("corner pixel = %v", got)
	}
}

func TestEraserRemovesPixels(t *testing.T) {
	r := newRenderer(t)
	s := NewSurface(100, 100)
	e := Entities{Strokes: []annotation.Stroke{
		{Tool: annotation.ToolPen, Color: "#ff0000", Width: 10, Points: []annotation.StrokePoint{{X: 0.1, Y: 0.5}, {X: 0.9, Y: 0.5}}},
		{Tool: annotation.ToolEraser, Width: 20, Points: []annotation.StrokePoint{{X: 0.5, Y: 0.2}, {X: 0.5, Y: 0.8}}},
	}}
	if err := r.Redraw(s, e, 100, 100, true); err != nil {
		t.Fatalf("redraw: %v", err)
	}
	if got := s.Image().RGBAAt(50, 50); got.A != 0 {
		t.Fatalf("erased pixel = %v, want transparent", got)
	}
	if got := s.Image().RGBAAt(20, 50); got.R != 255 || got.A != 255 {
		t.Fatalf("pen pixel = %v", got)
	}
}

func TestHighlightMultipliesAndRedactCovers(t *testing.T) {
	r := newRenderer(t)
	s := NewSurface(100, 100)
	s.FillRect(0, 0, 100, 100, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	e := Entities{Strokes: []annotation.Stroke{
		rectStroke(annotation.ToolHighlight, "#ffff00", 0.1, 0.1, 0.4, 0.4),
		rectStroke(annotation.ToolRedact, "#ff00ff", 0.6, 0.6, 0.9, 0.9),
	}}
	if err := r.Redraw(s, e, 100, 100, false); err != nil {
		t.Fatalf("redraw: %v", err)
	}
	// White multiplied by yellow at 0.3: blue drops to 0.7.
	got := s.Image().RGBAAt(25, 25)
	if got.R != 255 || got.G != 255 || got.B < 178 || got.B > 179 || got.A != 255 {
		t.Fatalf("highlight pixel = %v", got)
	}
	if got := s.Image().RGBAAt(75, 75); got != (color.RGBA{A: 255}) {
		t.Fatalf("redact pixel = %v, want opaque black", got)
	}
}

func TestHighlightModeSelection(t *testing.T) {
	r := newRenderer(t)
	rect := rectStroke(annotation.ToolHighlight, "#ffff00", 0.1, 0.1, 0.9, 0.9)
	line := annotation.Stroke{Tool: annotation.ToolHighlight, Color: "#ffff00", Width: 4, Points: []annotation.StrokePoint{{X: 0.1, Y: 0.1}, {X: 0.9, Y: 0.1}}}

	s := NewSurface(100, 100)
	_ = r.Redraw(s, Entities{Strokes: []annotation.Stroke{rect}}, 100, 100, true)
	if s.Image().RGBAAt(50, 50).A == 0 {
		t.Fatalf("rectangle mode should cover the box interior")
	}
	_ = r.Redraw(s, Entities{Strokes: []annotation.Stroke{line}}, 100, 100, true)
	if s.Image().RGBAAt(50, 50).A != 0 {
		t.Fatalf("polyline mode should not cover the interior")
	}
	if s.Image().RGBAAt(50, 10).A == 0 {
		t.Fatalf("polyline mode should cover the path")
	}
}

func TestBadStampImageIsSkipped(t *testing.T) {
	r := newRenderer(t)
	s := NewSurface(50, 50)
	e := Entities{Shapes: []annotation.Shape{
		{Type: annotation.ShapeStamp, StampType: annotation.StampCustom, StampImage: "not base64!", X2: 1, Y2: 1},
		{Type: annotation.ShapeLine, X1: 0, Y1: 0.5, X2: 1, Y2: 0.5, Color: "#000", Width: 4},
	}}
	if err := r.Redraw(s, e, 50, 50, true); err == nil {
		t.Fatalf("expected the stamp error to be reported")
	}
	if s.Image().RGBAAt(25, 25).A == 0 {
		t.Fatalf("line after the failed stamp was not drawn")
	}
}

func TestSchedulerCancelsPreviousRender(t *testing.T) {
	s := NewScheduler()
	started := make(chan struct{})
	var firstErr error
	var finished atomic.Int32
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		firstErr = s.Render(context.Background(), 1, func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			finished.Store(1)
			return ctx.Err()
		})
	}()
	<-started
	err := s.Render(context.Background(), 1, func(ctx context.Context) error {
		if finished.Load() != 1 {
			return errors.New("previous render still running")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	<-firstDone
	if !errors.Is(firstErr, context.Canceled) {
		t.Fatalf("first render error = %v, want canceled", firstErr)
	}
}

func TestSchedulerPagesAreIndependent(t *testing.T) {
	s := NewScheduler()
	block := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = s.Render(context.Background(), 1, func(ctx context.Context) error {
			close(started)
			<-block
			return nil
		})
	}()
	<-started
	if err := s.Render(context.Background(), 2, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("render page 2: %v", err)
	}
	close(block)
}

type fakeDoc struct{}

func (fakeDoc) NumPages() int { return 1 }
func (fakeDoc) PageSize(int) (pdfdoc.Size, error) {
	return pdfdoc.Size{Width: 10, Height: 10}, nil
}
func (fakeDoc) Viewport(_ int, scale float64) (pdfdoc.Viewport, error) {
	return pdfdoc.Viewport{Width: 10 * scale, Height: 10 * scale, Scale: scale}, nil
}
func (fakeDoc) Render(_ context.Context, _ int, scale float64) (image.Image, error) {
	n := int(10 * scale)
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i-3], img.Pix[i] = 255, 255
	}
	return img, nil
}

func TestPaintPage(t *testing.T) {
	s := NewSurface(20, 20)
	if err := PaintPage(context.Background(), s, fakeDoc{}, 1, 2); err != nil {
		t.Fatalf("paint: %v", err)
	}
	if got := s.Image().RGBAAt(10, 10); got.R != 255 || got.A != 255 {
		t.Fatalf("page pixel = %v", got)
	}
}
