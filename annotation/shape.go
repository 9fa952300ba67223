package annotation

import (
	"fmt"
	"time"

	"github.com/wudi/pdfmarkup/coords"
)

// ShapeKind is the closed set of vector shapes.
type ShapeKind int

const (
	ShapeLine ShapeKind = iota
	ShapeRectangle
	ShapeCircle
	ShapeArrow
	ShapeDoubleLine
	ShapePolylineArrow
	ShapeStamp
)

var shapeNames = [...]string{"line", "rectangle", "circle", "arrow", "double-line", "polyline-arrow", "stamp"}

func (k ShapeKind) String() string {
	if k < 0 || int(k) >= len(shapeNames) {
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
	return shapeNames[k]
}

func (k ShapeKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(shapeNames) {
		return nil, fmt.Errorf("unknown shape %d", int(k))
	}
	return []byte(shapeNames[k]), nil
}

func (k *ShapeKind) UnmarshalText(b []byte) error {
	for i, n := range shapeNames {
		if n == string(b) {
			*k = ShapeKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown shape %q", string(b))
}

// StampKind selects a stamp preset. The zero value is the plain bordered box.
type StampKind string

const (
	StampBox      StampKind = ""
	StampApproved StampKind = "approved"
	StampRejected StampKind = "rejected"
	StampDate     StampKind = "date"
	StampCustom   StampKind = "custom"
)

// Preset stamp colors.
const (
	StampApprovedColor = "#16a34a"
	StampRejectedColor = "#dc2626"
	StampDateColor     = "#2563eb"
	StampBoxColor      = "#dc2626"
)

// ShapeFillOpacity is the alpha of filled shapes.
const ShapeFillOpacity = 0.5

// Shape is a vector shape or stamp. X1,Y1 and X2,Y2 are either the
// endpoints of a line or the corners of the bounding box diagonal.
type Shape struct {
	ID         string        `json:"id"`
	Type       ShapeKind     `json:"type"`
	X1         float64       `json:"x1"`
	Y1         float64       `json:"y1"`
	X2         float64       `json:"x2"`
	Y2         float64       `json:"y2"`
	Color      string        `json:"color"`
	Width      float64       `json:"width"`
	Fill       bool          `json:"fill,omitempty"`
	Points     []StrokePoint `json:"points,omitempty"`
	StampType  StampKind     `json:"stampType,omitempty"`
	StampImage string        `json:"stampImage,omitempty"`
	StampText  string        `json:"stampText,omitempty"`
}

// Start and End return the defining points.
func (s Shape) Start() coords.Point { return coords.Point{X: s.X1, Y: s.Y1} }
func (s Shape) End() coords.Point   { return coords.Point{X: s.X2, Y: s.Y2} }

// LineWidth returns the width with the default applied.
func (s Shape) LineWidth() float64 {
	if s.Width <= 0 {
		return DefaultStrokeWidth
	}
	return s.Width
}

// Path returns the vertices of a polyline arrow, falling back to the two
// defining points when none were recorded.
func (s Shape) Path() []coords.Point {
	if len(s.Points) < 2 {
		return []coords.Point{s.Start(), s.End()}
	}
	out := make([]coords.Point, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Coords()
	}
	return out
}

// Clone returns a deep copy.
func (s Shape) Clone() Shape {
	out := s
	if s.Points != nil {
		out.Points = make([]StrokePoint, len(s.Points))
		for i, p := range s.Points {
			out.Points[i] = p
			if p.Pressure != nil {
				v := *p.Pressure
				out.Points[i].Pressure = &v
			}
		}
	}
	return out
}

// ShapeVisitor receives a shape dispatched on its kind.
type ShapeVisitor interface {
	Line(Shape) error
	Rectangle(Shape) error
	Circle(Shape) error
	Arrow(Shape) error
	DoubleLine(Shape) error
	PolylineArrow(Shape) error
	Stamp(Shape) error
}

// Accept dispatches s to the visitor method for its kind.
func (s Shape) Accept(v ShapeVisitor) error {
	switch s.Type {
	case ShapeLine:
		return v.Line(s)
	case ShapeRectangle:
		return v.Rectangle(s)
	case ShapeCircle:
		return v.Circle(s)
	case ShapeArrow:
		return v.Arrow(s)
	case ShapeDoubleLine:
		return v.DoubleLine(s)
	case ShapePolylineArrow:
		return v.PolylineArrow(s)
	case ShapeStamp:
		return v.Stamp(s)
	}
	return fmt.Errorf("unknown shape %d", int(s.Type))
}

// StampVisitor receives a stamp dispatched on its preset.
type StampVisitor interface {
	Approved(Shape) error
	Rejected(Shape) error
	Date(Shape) error
	Image(Shape) error
	Box(Shape) error
}

// Preset resolves the effective stamp preset: an image payload turns any
// unknown or custom stamp into an image stamp.
func (s Shape) Preset() StampKind {
	switch s.StampType {
	case StampApproved, StampRejected, StampDate:
		return s.StampType
	}
	if s.StampImage != "" {
		return StampCustom
	}
	return StampBox
}

// AcceptStamp dispatches a stamp shape to the visitor method for its preset.
func (s Shape) AcceptStamp(v StampVisitor) error {
	switch s.Preset() {
	case StampApproved:
		return v.Approved(s)
	case StampRejected:
		return v.Rejected(s)
	case StampDate:
		return v.Date(s)
	case StampCustom:
		return v.Image(s)
	}
	return v.Box(s)
}

// StampDateLayout formats the date of an undated date stamp.
const StampDateLayout = "2006/01/02"

// StampLabel returns the text of a date stamp: its own text, or now
// formatted with StampDateLayout.
func StampLabel(s Shape, now time.Time) string {
	if s.StampText != "" {
		return s.StampText
	}
	return now.Format(StampDateLayout)
}
