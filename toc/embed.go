package toc

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/wudi/pdfmarkup/fonts"
	"github.com/wudi/pdfmarkup/observability"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

// ErrInsertPoint is returned for an insertion point outside the document.
var ErrInsertPoint = errors.New("toc: insertion point out of range")

const (
	ellipsis      = "..."
	numberPadding = 10.0
	columnGap     = 20.0
	maxPasses     = 4
)

// Margins are page margins in points.
type Margins struct {
	Top, Right, Bottom, Left float64
}

type options struct {
	margins    Margins
	columns    int
	fontSize   float64
	lineHeight float64
	heading    string
	pageSize   *pdfdoc.Size
	text       fonts.TextRenderer
	color      color.RGBA
	logger     observability.Logger
	tracer     observability.Tracer
}

// Option configures Embed.
type Option func(*options)

func WithMargins(m Margins) Option { return func(o *options) { o.margins = m } }

func WithColumns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.columns = n
		}
	}
}

func WithFontSize(size float64) Option {
	return func(o *options) {
		if size > 0 {
			o.fontSize = size
		}
	}
}

// WithLineHeight sets the distance between rows in points.
func WithLineHeight(h float64) Option {
	return func(o *options) {
		if h > 0 {
			o.lineHeight = h
		}
	}
}

// WithHeading sets the title drawn at the top of the first page. An empty
// heading omits it.
func WithHeading(title string) Option { return func(o *options) { o.heading = title } }

// WithPageSize fixes the size of the generated pages. By default they
// match the page at the insertion point.
func WithPageSize(s pdfdoc.Size) Option { return func(o *options) { o.pageSize = &s } }

// WithTextRenderer sets how titles are drawn and measured.
func WithTextRenderer(r fonts.TextRenderer) Option { return func(o *options) { o.text = r } }

func WithLogger(l observability.Logger) Option { return func(o *options) { o.logger = l } }

func WithTracer(t observability.Tracer) Option { return func(o *options) { o.tracer = t } }

func defaults() options {
	return options{
		margins:    Margins{Top: 60, Right: 50, Bottom: 60, Left: 50},
		columns:    1,
		fontSize:   11,
		lineHeight: 18,
		heading:    "Contents",
		color:      color.RGBA{A: 255},
		logger:     observability.NopLogger{},
		tracer:     observability.NopTracer(),
	}
}

// Embed lays entries out as a table of contents and splices its pages in
// before the 1-based page at. Entries pointing at or after the insertion
// point are renumbered to account for the inserted pages. It returns the
// entries as printed and the number of inserted pages.
func Embed(ctx context.Context, doc *pdfdoc.Document, entries []Entry, at int, opts ...Option) ([]Entry, int, error) {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}
	if o.text == nil {
		o.text = fonts.NewSelector(nil)
	}
	ctx, span := o.tracer.StartSpan(ctx, observability.SpanTOCEmbed)
	defer span.Finish()

	if at < 1 || at > doc.NumPages()+1 {
		err := fmt.Errorf("%w: %d (document has %d pages)", ErrInsertPoint, at, doc.NumPages())
		span.SetError(err)
		return nil, 0, err
	}
	size := o.size(doc, at)

	// Renumbering can change the block itself, so lay out until its page
	// count is stable.
	n := 0
	var pages []*pdfdoc.Page
	var printed []Entry
	for pass := 0; pass < maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		printed = Renumber(entries, at, n)
		pages = o.layout(printed, size)
		if len(pages) == n {
			break
		}
		n = len(pages)
	}
	if len(pages) != n {
		printed = Renumber(entries, at, len(pages))
		pages = o.layout(printed, size)
	}
	if err := doc.InsertPages(at-1, pages...); err != nil {
		span.SetError(err)
		return nil, 0, err
	}
	span.SetTag(observability.TagPageCount, doc.NumPages())
	o.logger.Info("table of contents embedded",
		observability.Int("entries", len(entries)),
		observability.Int("pages", len(pages)),
		observability.Int("at", at),
	)
	return printed, len(pages), nil
}

// Renumber shifts every entry whose page is at or after the 1-based
// insertion point by n.
func Renumber(entries []Entry, at, n int) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Page >= at {
			e.Page += n
		}
		out[i] = e
	}
	return out
}

func (o *options) size(doc *pdfdoc.Document, at int) pdfdoc.Size {
	if o.pageSize != nil {
		return *o.pageSize
	}
	idx := at - 1
	if idx >= doc.NumPages() {
		idx = doc.NumPages() - 1
	}
	if p, err := doc.Page(idx); err == nil {
		return pdfdoc.Size{Width: p.Width, Height: p.Height}
	}
	return pdfdoc.Size{Width: 595.28, Height: 841.89}
}

func (o *options) headingHeight() float64 {
	if o.heading == "" {
		return 0
	}
	return o.fontSize*1.6 + o.lineHeight
}

// rows returns how many rows fit in one column of a page.
func (o *options) rows(size pdfdoc.Size, first bool) int {
	h := size.Height - o.margins.Top - o.margins.Bottom
	if first {
		h -= o.headingHeight()
	}
	return max(1, int(math.Floor(h/o.lineHeight)))
}

func (o *options) columnWidth(size pdfdoc.Size) float64 {
	usable := size.Width - o.margins.Left - o.margins.Right
	return (usable - columnGap*float64(o.columns-1)) / float64(o.columns)
}

// layout draws entries onto as many pages as they need. An empty list
// still yields one page.
func (o *options) layout(entries []Entry, size pdfdoc.Size) []*pdfdoc.Page {
	colW := o.columnWidth(size)
	var pages []*pdfdoc.Page
	i := 0
	for len(pages) == 0 || i < len(entries) {
		p := pdfdoc.NewPage(size.Width, size.Height)
		first := len(pages) == 0
		top := size.Height - o.margins.Top
		if first && o.heading != "" {
			o.draw(p, o.heading, o.margins.Left, top-o.fontSize*1.6, o.fontSize*1.6)
			top -= o.headingHeight()
		}
		rows := o.rows(size, first)
		for col := 0; col < o.columns && i < len(entries); col++ {
			x := o.margins.Left + float64(col)*(colW+columnGap)
			for row := 0; row < rows && i < len(entries); row++ {
				y := top - float64(row+1)*o.lineHeight
				o.entry(p, entries[i], x, y, colW)
				i++
			}
		}
		pages = append(pages, p)
	}
	return pages
}

func (o *options) entry(p *pdfdoc.Page, e Entry, x, y, colW float64) {
	num := strconv.Itoa(e.Page)
	numW := o.text.Measure(num, o.fontSize)
	title := Truncate(e.Title, colW-numW-numberPadding, func(s string) float64 {
		return o.text.Measure(s, o.fontSize)
	})
	o.draw(p, title, x, y, o.fontSize)
	o.draw(p, num, x+colW-numW, y, o.fontSize)
}

func (o *options) draw(p *pdfdoc.Page, text string, x, y, size float64) {
	if text == "" {
		return
	}
	if err := o.text.Draw(p, text, x, y, size, o.color, 1); err != nil {
		o.logger.Warn("toc text skipped",
			observability.String("text", text),
			observability.Error("error", err),
		)
	}
}

// Truncate shortens title with an ellipsis so it measures at most width.
// Characters are added one at a time until the next would overflow.
func Truncate(title string, width float64, measure func(string) float64) string {
	if measure(title) <= width {
		return title
	}
	runes := []rune(title)
	out := ""
	for i := range runes {
		next := string(runes[:i+1]) + ellipsis
		if measure(next) > width {
			break
		}
		out = next
	}
	if out == "" && measure(ellipsis) <= width {
		return ellipsis
	}
	return out
}
