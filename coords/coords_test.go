package coords

import (
	"math"
	"testing"
)

func clamp(v, max float64) float64 {
	return math.Min(math.Max(v, 0), max)
}

func TestNormalizeRoundTrip(t *testing.T) {
	const w, h = 800.0, 600.0
	cases := []struct{ px, py float64 }{
		{0, 0}, {400, 300}, {800, 600}, {-50, 20}, {900, -1}, {12.5, 599.9}, {1e9, -1e9},
	}
	for _, c := range cases {
		x, y := Denormalize(Normalize(c.px, c.py, w, h), w, h)
		if math.Abs(x-clamp(c.px, w)) > 1e-9 || math.Abs(y-clamp(c.py, h)) > 1e-9 {
			t.Fatalf("round trip (%v,%v) = (%v,%v)", c.px, c.py, x, y)
		}
	}
}

func TestNormalizeDegenerateCanvas(t *testing.T) {
	p := Normalize(10, 10, 0, -5)
	if p.X != 0 || p.Y != 0 {
		t.Fatalf("expected origin for degenerate canvas, got %+v", p)
	}
	if p := Normalize(math.NaN(), 5, 10, 10); p.X != 0 {
		t.Fatalf("NaN should clamp to 0, got %+v", p)
	}
}

func TestToPagePointFlipsY(t *testing.T) {
	cases := []struct {
		in   Point
		want Point
	}{
		{Point{0, 0}, Point{0, 100}},
		{Point{1, 1}, Point{200, 0}},
		{Point{0.5, 0.25}, Point{100, 75}},
	}
	for _, c := range cases {
		got := ToPagePoint(c.in, 200, 100)
		if got != c.want {
			t.Fatalf("ToPagePoint(%+v) = %+v, want %+v", c.in, got, c.want)
		}
		back := FromPagePoint(got, 200, 100)
		if math.Abs(back.X-c.in.X) > 1e-12 || math.Abs(back.Y-c.in.Y) > 1e-12 {
			t.Fatalf("FromPagePoint(%+v) = %+v", got, back)
		}
	}
}

func TestMatrixInverse(t *testing.T) {
	m := Translate(10, 20).Multiply(Scale(2, 3)).Multiply(Rotate(math.Pi / 6))
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	p := Point{X: 7, Y: -3}
	got := inv.Transform(m.Transform(p))
	if math.Abs(got.X-p.X) > 1e-9 || math.Abs(got.Y-p.Y) > 1e-9 {
		t.Fatalf("inverse round trip = %+v", got)
	}
	if _, err := Scale(0, 1).Inverse(); err == nil {
		t.Fatalf("expected singular matrix error")
	}
}
