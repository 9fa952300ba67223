package annotation

import (
	"strings"

	"github.com/wudi/pdfmarkup/coords"
)

// TextAnnotation is a free text box anchored at its top-left corner.
// FontSize is in canvas pixels at zoom 1.
type TextAnnotation struct {
	ID       string   `json:"id"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Text     string   `json:"text"`
	FontSize float64  `json:"fontSize"`
	Color    string   `json:"color"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
}

// DefaultFontSize applies when a text annotation carries no size.
const DefaultFontSize = 16

// LineHeightFactor is the baseline-to-baseline distance per font size unit.
const LineHeightFactor = 1.2

// Lines splits the text on explicit line breaks only.
func (t TextAnnotation) Lines() []string {
	s := strings.ReplaceAll(t.Text, "\r\n", "\n")
	return strings.Split(s, "\n")
}

// Size returns the font size with the default applied.
func (t TextAnnotation) Size() float64 {
	if t.FontSize <= 0 {
		return DefaultFontSize
	}
	return t.FontSize
}

// Anchor returns the top-left corner in normalized space.
func (t TextAnnotation) Anchor() coords.Point { return coords.Point{X: t.X, Y: t.Y} }

// Clone returns a deep copy.
func (t TextAnnotation) Clone() TextAnnotation {
	out := t
	if t.Width != nil {
		v := *t.Width
		out.Width = &v
	}
	if t.Height != nil {
		v := *t.Height
		out.Height = &v
	}
	return out
}
