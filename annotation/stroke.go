package annotation

import (
	"fmt"

	"github.com/wudi/pdfmarkup/coords"
)

// Tool is the closed set of freehand tools.
type Tool int

const (
	ToolPen Tool = iota
	ToolEraser
	ToolHighlight
	ToolRedact
)

var toolNames = [...]string{"pen", "eraser", "highlight", "redact"}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("Tool(%d)", int(t))
	}
	return toolNames[t]
}

// ParseTool maps a wire name to a Tool.
func ParseTool(s string) (Tool, error) {
	for i, n := range toolNames {
		if n == s {
			return Tool(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}

func (t Tool) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(toolNames) {
		return nil, fmt.Errorf("unknown tool %d", int(t))
	}
	return []byte(toolNames[t]), nil
}

func (t *Tool) UnmarshalText(b []byte) error {
	v, err := ParseTool(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// StrokePoint is one sampled pointer position in normalized space.
type StrokePoint struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Pressure *float64 `json:"pressure,omitempty"`
}

// Coords returns the point without pressure.
func (p StrokePoint) Coords() coords.Point { return coords.Point{X: p.X, Y: p.Y} }

// Stroke is a freehand gesture. Width is the pen thickness in canvas pixels
// and is not normalized.
type Stroke struct {
	ID     string        `json:"id,omitempty"`
	Tool   Tool          `json:"tool"`
	Color  string        `json:"color"`
	Width  float64       `json:"width"`
	Points []StrokePoint `json:"points"`
}

// HighlightOpacity is the alpha of highlight marks, both on screen and
// when baked.
const HighlightOpacity = 0.3

// DefaultStrokeWidth applies to strokes and shapes without a width.
const DefaultStrokeWidth = 2

// LineWidth returns the width with the default applied.
func (s Stroke) LineWidth() float64 {
	if s.Width <= 0 {
		return DefaultStrokeWidth
	}
	return s.Width
}

// RectModeMinPoints is the point count from which a highlight or redact
// stroke is treated as a drag rectangle instead of a polyline. Shorter
// strokes are legacy freehand highlights.
const RectModeMinPoints = 4

// RectMode reports whether the stroke is drawn as the bounding box of its
// points. Only highlight and redact strokes have a rectangle mode.
func (s Stroke) RectMode() bool {
	return (s.Tool == ToolHighlight || s.Tool == ToolRedact) && len(s.Points) >= RectModeMinPoints
}

// Bounds returns the normalized bounding box of the stroke points.
func (s Stroke) Bounds() (min, max coords.Point) {
	if len(s.Points) == 0 {
		return
	}
	min = s.Points[0].Coords()
	max = min
	for _, p := range s.Points[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Clone returns a deep copy.
func (s Stroke) Clone() Stroke {
	out := s
	out.Points = make([]StrokePoint, len(s.Points))
	for i, p := range s.Points {
		out.Points[i] = p
		if p.Pressure != nil {
			v := *p.Pressure
			out.Points[i].Pressure = &v
		}
	}
	return out
}

// StrokeVisitor receives a stroke dispatched on its tool. Renderers
// implement every method, so adding a tool fails to compile until each
// renderer handles it.
type StrokeVisitor interface {
	Pen(Stroke) error
	Eraser(Stroke) error
	Highlight(Stroke) error
	Redact(Stroke) error
}

// Accept dispatches s to the visitor method for its tool.
func (s Stroke) Accept(v StrokeVisitor) error {
	switch s.Tool {
	case ToolPen:
		return v.Pen(s)
	case ToolEraser:
		return v.Eraser(s)
	case ToolHighlight:
		return v.Highlight(s)
	case ToolRedact:
		return v.Redact(s)
	}
	return fmt.Errorf("unknown tool %d", int(s.Tool))
}
