// Package bake flattens annotations into a new PDF. Every annotation is
// replayed as primitive drawing operations over the original pages in a
// fixed order: rotation, strokes, text, shapes and stamps, then the
// watermark on top. Form values and signatures are drawn once per document
// before the page loop.
package bake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/fonts"
	"github.com/wudi/pdfmarkup/observability"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

// Request is everything needed to bake one document. Per-page maps are
// keyed by 1-based page number.
type Request struct {
	Original []byte
	// PageSizes overrides the page geometry; when empty it is read from
	// Original.
	PageSizes  []pdfdoc.Size
	Strokes    map[int][]annotation.Stroke
	Texts      map[int][]annotation.TextAnnotation
	Shapes     map[int][]annotation.Shape
	FormFields []annotation.FormField
	FormValues map[string]string
	Signatures []annotation.Signature
	Watermark  *annotation.Watermark
	Rotations  annotation.Rotations
}

// FromDocument builds a request from a persisted annotation document.
func FromDocument(original []byte, doc *annotation.Document, fields []annotation.FormField) Request {
	return Request{
		Original:   original,
		Strokes:    doc.Strokes,
		Texts:      doc.Texts,
		Shapes:     doc.Shapes,
		FormFields: fields,
		FormValues: doc.FormValues,
		Signatures: doc.Signatures,
		Watermark:  doc.Watermark,
		Rotations:  doc.Rotations,
	}
}

// snapshot deep-copies every collection so edits made while a bake runs
// cannot tear the pages it reads.
func (r Request) snapshot() Request {
	out := Request{
		Original:   r.Original,
		PageSizes:  append([]pdfdoc.Size(nil), r.PageSizes...),
		Strokes:    annotation.CloneStrokes(r.Strokes),
		Texts:      annotation.CloneTexts(r.Texts),
		Shapes:     annotation.CloneShapes(r.Shapes),
		FormValues: annotation.CloneValues(r.FormValues),
		Signatures: append([]annotation.Signature(nil), r.Signatures...),
		Rotations:  r.Rotations.Clone(),
	}
	for _, f := range r.FormFields {
		out.FormFields = append(out.FormFields, f.Clone())
	}
	if r.Watermark != nil {
		w := *r.Watermark
		out.Watermark = &w
	}
	return out
}

// Skip records one annotation that could not be drawn.
type Skip struct {
	Page  int
	Kind  string
	Index int
	Err   error
}

// Report summarizes a bake.
type Report struct {
	Pages   int
	Skipped []Skip
}

// Engine bakes documents. It is safe for concurrent use as long as the
// configured serializer is.
type Engine struct {
	serializer pdfdoc.Serializer
	inspect    func(context.Context, []byte) ([]pdfdoc.Size, error)
	text       *fonts.Selector
	logger     observability.Logger
	tracer     observability.Tracer
	now        func() time.Time
	rasterizer *fonts.Rasterizer
}

// Option configures an Engine.
type Option func(*Engine)

// WithSerializer replaces the fpdf serializer.
func WithSerializer(s pdfdoc.Serializer) Option { return func(e *Engine) { e.serializer = s } }

// WithInspector replaces the page-size reader used when a request has no
// page sizes.
func WithInspector(f func(context.Context, []byte) ([]pdfdoc.Size, error)) Option {
	return func(e *Engine) { e.inspect = f }
}

// WithRasterizer sets the outline font used for text the built-in font
// cannot encode.
func WithRasterizer(r *fonts.Rasterizer) Option { return func(e *Engine) { e.rasterizer = r } }

// WithLogger sets the logger for skipped annotations.
func WithLogger(l observability.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithTracer sets the tracer.
func WithTracer(t observability.Tracer) Option { return func(e *Engine) { e.tracer = t } }

// WithClock overrides the clock used for undated date stamps.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New builds an engine. Without WithRasterizer the bundled Go font is
// used for raster text; it has no CJK glyphs, so text it cannot draw is
// reported in Report.Skipped.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		serializer: pdfdoc.FPDF{Compress: true},
		inspect:    pdfdoc.Inspect,
		logger:     observability.NopLogger{},
		tracer:     observability.NopTracer(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rasterizer == nil {
		r, err := fonts.NewRasterizer(nil, fonts.DefaultRasterScale)
		if err != nil {
			return nil, fmt.Errorf("default rasterizer: %w", err)
		}
		e.rasterizer = r
	}
	if !e.rasterizer.HasCJK() {
		e.logger.Warn("raster font has no CJK glyphs, Japanese text will be skipped")
	}
	e.text = fonts.NewSelector(e.rasterizer)
	return e, nil
}

// Bake draws req and serializes the result. It fails only for
// document-level problems; annotations that cannot be drawn are logged,
// skipped and listed in the report.
func (e *Engine) Bake(ctx context.Context, req Request) ([]byte, Report, error) {
	ctx, span := e.tracer.StartSpan(ctx, observability.SpanBake)
	defer span.Finish()

	doc, report, err := e.Draw(ctx, req)
	if err != nil {
		span.SetError(err)
		return nil, report, err
	}
	span.SetTag(observability.TagPageCount, report.Pages)
	span.SetTag(observability.TagSkippedCount, len(report.Skipped))

	out, err := e.Serialize(ctx, doc)
	if err != nil {
		span.SetError(err)
		return nil, report, err
	}
	span.SetTag(observability.TagOutputBytes, len(out))
	return out, report, nil
}

// Serialize writes doc with the engine's serializer and rejects empty
// output.
func (e *Engine) Serialize(ctx context.Context, doc *pdfdoc.Document) ([]byte, error) {
	ctx, span := e.tracer.StartSpan(ctx, observability.SpanSerialize)
	defer span.Finish()
	var buf bytes.Buffer
	if err := e.serializer.Serialize(ctx, doc, &buf); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("serialize: %w", err)
	}
	if buf.Len() == 0 {
		return nil, errors.New("serializer produced no output")
	}
	return buf.Bytes(), nil
}

// Draw builds the display lists of the baked document without
// serializing it.
func (e *Engine) Draw(ctx context.Context, req Request) (*pdfdoc.Document, Report, error) {
	req = req.snapshot()
	var report Report

	sizes := req.PageSizes
	if len(sizes) == 0 {
		if len(req.Original) == 0 {
			return nil, report, errors.New("bake: no original document and no page sizes")
		}
		var err error
		if sizes, err = e.inspect(ctx, req.Original); err != nil {
			return nil, report, fmt.Errorf("bake: %w", err)
		}
	}
	if len(sizes) == 0 {
		return nil, report, errors.New("bake: document has no pages")
	}
	doc := pdfdoc.New(req.Original, sizes)
	report.Pages = doc.NumPages()

	b := &baker{e: e, doc: doc, report: &report}
	b.formValues(req.FormFields, req.FormValues)
	b.signatures(req.Signatures)

	var mark *watermarkImage
	if req.Watermark != nil {
		var err error
		if mark, err = e.watermarkImage(*req.Watermark); err != nil {
			b.skip(0, "watermark", 0, err)
		}
	}

	for i, page := range doc.Pages() {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		n := i + 1
		pb := &pageBaker{baker: b, page: page, number: n}
		if rot := req.Rotations.Of(n); rot != 0 {
			if err := page.SetRotation(rot); err != nil {
				b.skip(n, "rotation", 0, err)
			}
		}
		for j, st := range req.Strokes[n] {
			pb.index = j
			if err := st.Accept(strokeBaker{pb}); err != nil {
				b.skip(n, "stroke", j, err)
			}
		}
		for j, t := range req.Texts[n] {
			if err := pb.text(t); err != nil {
				b.skip(n, "text", j, err)
			}
		}
		for j, sh := range req.Shapes[n] {
			if err := sh.Accept(shapeBaker{pb}); err != nil {
				b.skip(n, "shape", j, err)
			}
		}
		if mark != nil {
			pb.watermark(mark)
		}
	}
	return doc, report, nil
}

type baker struct {
	e      *Engine
	doc    *pdfdoc.Document
	report *Report
}

func (b *baker) skip(page int, kind string, index int, err error) {
	b.report.Skipped = append(b.report.Skipped, Skip{Page: page, Kind: kind, Index: index, Err: err})
	b.e.logger.Warn("annotation skipped",
		observability.Int("page", page),
		observability.String("kind", kind),
		observability.Int("index", index),
		observability.Error("error", err),
	)
}

// page returns the 1-based page n.
func (b *baker) page(n int) (*pdfdoc.Page, error) {
	if n < 1 || n > b.doc.NumPages() {
		return nil, fmt.Errorf("page %d out of range [1,%d]", n, b.doc.NumPages())
	}
	return b.doc.Page(n - 1)
}

// pageBaker draws onto one page. Geometry is computed in top-down page
// points (x*W, y*H) and flipped into PDF space when emitted.
type pageBaker struct {
	*baker
	page   *pdfdoc.Page
	number int
	index  int
}

func (p *pageBaker) w() float64 { return p.page.Width }
func (p *pageBaker) h() float64 { return p.page.Height }
