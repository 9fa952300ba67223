package bake

import (
	"image/color"
	"math"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/coords"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

const maxFieldFontSize = 12

var fieldInk = color.RGBA{A: 0xff}

// formValues draws the supplied values into their fields' rectangles.
// Fields without a supplied value keep whatever the original shows.
func (b *baker) formValues(fields []annotation.FormField, values map[string]string) {
	for i, f := range fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		if err := b.formValue(f, v); err != nil {
			b.skip(f.PageNumber, "form-field", i, err)
		}
	}
}

func (b *baker) formValue(f annotation.FormField, v string) error {
	if err := f.Type.Validate(); err != nil {
		return err
	}
	page, err := b.page(f.PageNumber)
	if err != nil {
		return err
	}
	r := f.Rect
	switch f.Type {
	case annotation.FieldText, annotation.FieldDropdown:
		if v == "" {
			return nil
		}
		if f.MaxLength > 0 {
			if runes := []rune(v); len(runes) > f.MaxLength {
				v = string(runes[:f.MaxLength])
			}
		}
		size := math.Min(r.Height*0.7, maxFieldFontSize)
		if size <= 0 {
			size = maxFieldFontSize
		}
		baseline := r.Y + (r.Height-size)/2 + size*0.2
		return b.e.text.Draw(page, v, r.X+2, baseline, size, fieldInk, 1)
	case annotation.FieldCheckbox, annotation.FieldRadio:
		if annotation.Checked(v) {
			checkMark(page, r)
		}
	}
	return nil
}

// checkMark draws a tick centred in a page-space rectangle.
func checkMark(page *pdfdoc.Page, r annotation.Rect) {
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	rad := math.Min(r.Width, r.Height) / 2 * 0.8
	pts := annotation.CheckMark(coords.Point{X: cx}, rad)
	s := pdfdoc.Stroke{Color: fieldInk, Width: math.Max(1, rad*0.25), Opacity: 1}
	for i := 1; i < len(pts); i++ {
		// CheckMark grows downwards; page space grows upwards.
		page.DrawLine(pts[i-1].X, cy-pts[i-1].Y, pts[i].X, cy-pts[i].Y, s)
	}
}
