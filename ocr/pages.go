package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"math"

	"github.com/wudi/pdfmarkup/observability"
	"github.com/wudi/pdfmarkup/pdfdoc"
	"github.com/wudi/pdfmarkup/store"
)

// DefaultScale renders pages at 216 dpi.
const DefaultScale = 3.0

// ErrPageRange is returned for a page outside the document.
var ErrPageRange = errors.New("ocr: page out of range")

// Recognizer renders pages and runs them through an engine.
type Recognizer struct {
	engine   Engine
	renderer pdfdoc.Renderer
	scale    float64
	opts     []InputOption
	logger   observability.Logger
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithScale sets the render scale; 1 is 72 dpi.
func WithScale(s float64) Option {
	return func(r *Recognizer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithInputOptions applies opts to every rendered page.
func WithInputOptions(opts ...InputOption) Option {
	return func(r *Recognizer) { r.opts = append(r.opts, opts...) }
}

func WithLogger(l observability.Logger) Option {
	return func(r *Recognizer) { r.logger = l }
}

func NewRecognizer(engine Engine, renderer pdfdoc.Renderer, opts ...Option) *Recognizer {
	r := &Recognizer{
		engine:   engine,
		renderer: renderer,
		scale:    DefaultScale,
		logger:   observability.NopLogger{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Input renders a 1-based page to PNG.
func (r *Recognizer) Input(ctx context.Context, page int) (Input, error) {
	if page < 1 || page > r.renderer.NumPages() {
		return Input{}, fmt.Errorf("%w: %d of %d", ErrPageRange, page, r.renderer.NumPages())
	}
	img, err := r.renderer.Render(ctx, page, r.scale)
	if err != nil {
		return Input{}, fmt.Errorf("render page %d: %w", page, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Input{}, fmt.Errorf("encode page %d: %w", page, err)
	}
	in := Input{
		ID:     fmt.Sprintf("page-%d", page),
		Image:  buf.Bytes(),
		Format: ImageFormatPNG,
		Page:   page,
		DPI:    int(math.Round(72 * r.scale)),
	}
	for _, o := range r.opts {
		o(&in)
	}
	return in, nil
}

// RecognizePages renders and recognizes each page in order. Engines that
// support batches receive all pages in one call.
func (r *Recognizer) RecognizePages(ctx context.Context, pages ...int) ([]Result, error) {
	inputs := make([]Input, 0, len(pages))
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in, err := r.Input(ctx, p)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	var results []Result
	if b, ok := r.engine.(BatchEngine); ok {
		var err error
		if results, err = b.RecognizeBatch(ctx, inputs); err != nil {
			return nil, err
		}
		if len(results) != len(inputs) {
			return nil, fmt.Errorf("%s returned %d results for %d pages", r.engine.Name(), len(results), len(inputs))
		}
	} else {
		results = make([]Result, 0, len(inputs))
		for _, in := range inputs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := r.engine.Recognize(ctx, in)
			if err != nil {
				return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
			}
			results = append(results, res)
		}
	}
	for i := range results {
		results[i].Page = inputs[i].Page
		r.logger.Debug("page recognized",
			observability.String("engine", r.engine.Name()),
			observability.Int("page", inputs[i].Page),
			observability.Float("confidence", results[i].Confidence),
		)
	}
	return results, nil
}

// Save stores each result under its page.
func Save(ctx context.Context, repo *store.Repository, docID string, results []Result) error {
	for _, res := range results {
		if err := repo.SavePage(ctx, docID, res.Page, store.OCR, res); err != nil {
			return fmt.Errorf("save ocr page %d: %w", res.Page, err)
		}
	}
	return nil
}

// Load returns the stored result of a page, or nil.
func Load(ctx context.Context, repo *store.Repository, docID string, page int) (*Result, error) {
	var res Result
	ok, err := repo.LoadPage(ctx, docID, page, store.OCR, &res)
	if err != nil || !ok {
		return nil, err
	}
	return &res, nil
}

// MeanConfidence averages word confidences.
func MeanConfidence(words []Word) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}
