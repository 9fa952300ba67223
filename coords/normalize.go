package coords

// Clamp01 limits v to [0,1]. NaN becomes 0.
func Clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Normalize converts a pixel position on a width x height canvas into
// normalized space. Out-of-range input is clamped to the canvas edge so an
// off-canvas drag never produces coordinates outside [0,1]. A degenerate
// canvas dimension maps to 0.
func Normalize(px, py, width, height float64) Point {
	var p Point
	if width > 0 {
		p.X = Clamp01(px / width)
	}
	if height > 0 {
		p.Y = Clamp01(py / height)
	}
	return p
}

// Denormalize converts a normalized position back into canvas pixels.
func Denormalize(p Point, width, height float64) (float64, float64) {
	return p.X * width, p.Y * height
}

// ToPagePoint converts a normalized position into PDF page space, flipping
// the vertical axis: pageY = (1 - y) * pageHeight.
func ToPagePoint(p Point, pageWidth, pageHeight float64) Point {
	return Point{X: p.X * pageWidth, Y: (1 - p.Y) * pageHeight}
}

// FromPagePoint is the inverse of ToPagePoint, clamped to [0,1].
func FromPagePoint(p Point, pageWidth, pageHeight float64) Point {
	var n Point
	if pageWidth > 0 {
		n.X = Clamp01(p.X / pageWidth)
	}
	if pageHeight > 0 {
		n.Y = Clamp01(1 - p.Y/pageHeight)
	}
	return n
}

// ToPageLength scales a normalized length along one axis to page units.
func ToPageLength(v, dimension float64) float64 { return v * dimension }
