// Package forms reads interactive form fields and evaluates their
// calculation scripts.
package forms

import (
	"context"
	"fmt"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

// Widget is a terminal form field as read from a document. Page is the
// 1-based page of its widget annotation, or 0 when the document does not
// say.
type Widget struct {
	Name      string
	Type      annotation.FieldType
	Rect      annotation.Rect
	Page      int
	Value     string
	Options   []string
	ReadOnly  bool
	Required  bool
	MaxLength int
	Script    string
}

// Source yields the form fields of a document.
type Source interface {
	Widgets(ctx context.Context) ([]Widget, error)
}

// Extract reads every field of src and places it on a page. A page index
// supplied by the document wins; otherwise the field goes to the first
// page whose height range contains its Y coordinate. Uniformly sized
// pages therefore all match and page order decides, so such fields land
// on page 1.
func Extract(ctx context.Context, src Source, sizes []pdfdoc.Size) ([]annotation.FormField, error) {
	widgets, err := src.Widgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("read form fields: %w", err)
	}
	out := make([]annotation.FormField, 0, len(widgets))
	for i, w := range widgets {
		if err := w.Type.Validate(); err != nil {
			return nil, fmt.Errorf("field %q: %w", w.Name, err)
		}
		page := w.Page
		if page < 1 || page > len(sizes) {
			page = AssignPage(w.Rect.Y, sizes)
		}
		out = append(out, annotation.FormField{
			ID:                fmt.Sprintf("field-%d", i+1),
			Name:              w.Name,
			Type:              w.Type,
			PageNumber:        page,
			Rect:              w.Rect,
			Value:             w.Value,
			Options:           append([]string(nil), w.Options...),
			ReadOnly:          w.ReadOnly,
			Required:          w.Required,
			MaxLength:         w.MaxLength,
			CalculationScript: w.Script,
		})
	}
	return out, nil
}

// AssignPage returns the first 1-based page i with 0 <= y <= height(i),
// or 1 when none matches.
func AssignPage(y float64, sizes []pdfdoc.Size) int {
	for i, s := range sizes {
		if y >= 0 && y <= s.Height {
			return i + 1
		}
	}
	return 1
}
