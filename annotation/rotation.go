package annotation

import "fmt"

// Rotations maps a 1-based page number to its clockwise rotation in degrees.
type Rotations map[int]int

// NormalizeRotation folds any multiple of 90 into {0,90,180,270}.
func NormalizeRotation(deg int) (int, error) {
	if deg%90 != 0 {
		return 0, fmt.Errorf("rotation %d is not a multiple of 90", deg)
	}
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg, nil
}

// Of returns the normalized rotation for page, 0 when unset or invalid.
func (r Rotations) Of(page int) int {
	deg, err := NormalizeRotation(r[page])
	if err != nil {
		return 0
	}
	return deg
}

// Clone returns a copy.
func (r Rotations) Clone() Rotations {
	if r == nil {
		return nil
	}
	out := make(Rotations, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
