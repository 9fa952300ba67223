package pdfdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
)

// Serializer writes a document's pages, with their display lists replayed
// on top, as a PDF byte stream.
type Serializer interface {
	Serialize(ctx context.Context, doc *Document, w io.Writer) error
}

// FPDF serializes through fpdf, importing each source page of the original
// as a template and replaying the page's operations over it.
type FPDF struct {
	// Compress enables stream compression in the output.
	Compress bool
}

// Serialize implements Serializer.
func (s FPDF) Serialize(ctx context.Context, doc *Document, w io.Writer) error {
	if doc == nil || doc.NumPages() == 0 {
		return errors.New("document has no pages")
	}
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(s.Compress)

	var (
		importer *gofpdi.Importer
		rs       io.ReadSeeker
	)
	if len(doc.original) > 0 {
		importer = gofpdi.NewImporter()
		rs = bytes.NewReader(doc.original)
	}
	images := make(map[string]bool)

	for i, p := range doc.pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		ow, oh := p.Width, p.Height
		if p.Rotation == 90 || p.Rotation == 270 {
			ow, oh = oh, ow
		}
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: ow, Ht: oh})
		if p.Rotation != 0 {
			pdf.TransformBegin()
			rotate(pdf, p)
		}
		if p.Source >= 0 && importer != nil {
			tpl := importer.ImportPageFromStream(pdf, &rs, p.Source+1, "/MediaBox")
			importer.UseImportedTemplate(pdf, tpl, 0, 0, p.Width, p.Height)
		}
		for _, op := range p.Ops {
			replay(pdf, p.Height, op, images)
		}
		if p.Rotation != 0 {
			pdf.TransformEnd()
		}
		if pdf.Err() {
			return fmt.Errorf("page %d: %w", i+1, pdf.Error())
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// rotate maps the unrotated page (top-left origin, Y down) onto the
// output page turned clockwise by p.Rotation.
func rotate(pdf *fpdf.Fpdf, p *Page) {
	switch p.Rotation {
	case 90:
		pdf.TransformTranslate(p.Height, 0)
		pdf.TransformRotate(-90, 0, 0)
	case 180:
		pdf.TransformTranslate(p.Width, p.Height)
		pdf.TransformRotate(180, 0, 0)
	case 270:
		pdf.TransformTranslate(0, p.Width)
		pdf.TransformRotate(90, 0, 0)
	}
}

func alpha(v float64) float64 {
	if v <= 0 || v > 1 {
		return 1
	}
	return v
}

func setStroke(pdf *fpdf.Fpdf, s Stroke) {
	pdf.SetDrawColor(int(s.Color.R), int(s.Color.G), int(s.Color.B))
	pdf.SetLineWidth(s.Width)
	pdf.SetAlpha(alpha(s.Opacity), "Normal")
}

func paint(pdf *fpdf.Fpdf, f *Fill, s *Stroke) string {
	style := ""
	if s != nil {
		setStroke(pdf, *s)
		style = "D"
	}
	if f != nil {
		pdf.SetFillColor(int(f.Color.R), int(f.Color.G), int(f.Color.B))
		pdf.SetAlpha(alpha(f.Opacity), "Normal")
		style = "F" + style
	}
	return style
}

// replay draws op; page space has Y up, fpdf has Y down.
func replay(pdf *fpdf.Fpdf, h float64, op Op, images map[string]bool) {
	switch o := op.(type) {
	case Line:
		setStroke(pdf, o.Stroke)
		pdf.SetLineCapStyle("round")
		pdf.Line(o.X1, h-o.Y1, o.X2, h-o.Y2)
	case Rect:
		if style := paint(pdf, o.Fill, o.Stroke); style != "" {
			pdf.Rect(o.X, h-o.Y-o.H, o.W, o.H, style)
		}
	case Circle:
		if style := paint(pdf, o.Fill, o.Stroke); style != "" {
			pdf.Circle(o.X, h-o.Y, o.R, style)
		}
	case Text:
		pdf.SetFont("Helvetica", "", o.Size)
		pdf.SetTextColor(int(o.Color.R), int(o.Color.G), int(o.Color.B))
		pdf.SetAlpha(alpha(o.Opacity), "Normal")
		pdf.Text(o.X, h-o.Y, o.Text)
	case Image:
		if o.Bitmap == nil {
			return
		}
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		if !images[o.Bitmap.ID] {
			pdf.RegisterImageOptionsReader(o.Bitmap.ID, opts, bytes.NewReader(o.Bitmap.PNG))
			images[o.Bitmap.ID] = true
		}
		pdf.SetAlpha(alpha(o.Opacity), "Normal")
		pdf.ImageOptions(o.Bitmap.ID, o.X, h-o.Y-o.H, o.W, o.H, false, opts, 0, "")
	}
	pdf.SetAlpha(1, "Normal")
}
