package annotation

import (
	"math"

	"github.com/wudi/pdfmarkup/coords"
)

// Segment is a straight line between two points.
type Segment struct{ A, B coords.Point }

// Arrow head geometry.
const (
	ArrowHeadAngle  = math.Pi / 6
	ArrowHeadFactor = 3.0
	// DoubleLineFactor is the perpendicular offset of each rail of a
	// double line, relative to the stroke width.
	DoubleLineFactor = 0.8
)

// ArrowHead returns the two barbs of an arrow pointing from `from` to `to`.
// Both barbs start at `to`, leave at ±30 degrees from the reversed line
// direction and are 3×width long. The points must be in a space whose axes
// share a scale (pixels or page points, never normalized units).
func ArrowHead(from, to coords.Point, width float64) [2]Segment {
	angle := math.Atan2(to.Y-from.Y, to.X-from.X)
	length := ArrowHeadFactor * width
	var out [2]Segment
	for i, sign := range [2]float64{1, -1} {
		a := angle + sign*ArrowHeadAngle
		out[i] = Segment{
			A: to,
			B: coords.Point{X: to.X - length*math.Cos(a), Y: to.Y - length*math.Sin(a)},
		}
	}
	return out
}

// DoubleLine returns the two rails of a double line, each offset by
// 0.8×width perpendicular to the line direction.
func DoubleLine(from, to coords.Point, width float64) [2]Segment {
	angle := math.Atan2(to.Y-from.Y, to.X-from.X)
	off := DoubleLineFactor * width
	nx, ny := -math.Sin(angle)*off, math.Cos(angle)*off
	return [2]Segment{
		{A: coords.Point{X: from.X + nx, Y: from.Y + ny}, B: coords.Point{X: to.X + nx, Y: to.Y + ny}},
		{A: coords.Point{X: from.X - nx, Y: from.Y - ny}, B: coords.Point{X: to.X - nx, Y: to.Y - ny}},
	}
}

// Box returns the lower corner and size of the rectangle spanned by two
// diagonal corners.
func Box(a, b coords.Point) (min coords.Point, w, h float64) {
	min = coords.Point{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)}
	return min, math.Abs(b.X - a.X), math.Abs(b.Y - a.Y)
}

// Circle returns the circle whose diameter is the segment a-b.
func Circle(a, b coords.Point) (center coords.Point, r float64) {
	center = coords.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	return center, math.Hypot(b.X-a.X, b.Y-a.Y) / 2
}

// CheckMark returns the tick of an approval stamp inscribed in the circle
// at c with radius r. Y grows downwards.
func CheckMark(c coords.Point, r float64) []coords.Point {
	return []coords.Point{
		{X: c.X - 0.5*r, Y: c.Y},
		{X: c.X - 0.1*r, Y: c.Y + 0.4*r},
		{X: c.X + 0.5*r, Y: c.Y - 0.4*r},
	}
}

// Cross returns the two strokes of a rejection stamp inscribed in the
// circle at c with radius r.
func Cross(c coords.Point, r float64) [2]Segment {
	d := 0.45 * r
	return [2]Segment{
		{A: coords.Point{X: c.X - d, Y: c.Y - d}, B: coords.Point{X: c.X + d, Y: c.Y + d}},
		{A: coords.Point{X: c.X - d, Y: c.Y + d}, B: coords.Point{X: c.X + d, Y: c.Y - d}},
	}
}

// StampRadius is the radius of the preset circle relative to the smaller
// side of the stamp box.
const StampRadius = 0.45

// FitImage scales an iw x ih image into a box of bw x bh preserving the
// aspect ratio and returns the scaled size.
func FitImage(iw, ih, bw, bh float64) (float64, float64) {
	if iw <= 0 || ih <= 0 || bw <= 0 || bh <= 0 {
		return 0, 0
	}
	k := math.Min(bw/iw, bh/ih)
	return iw * k, ih * k
}
