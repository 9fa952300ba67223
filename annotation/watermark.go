package annotation

import "fmt"

// WatermarkPattern is the tiling rule for watermark instances.
type WatermarkPattern string

const (
	PatternCenter WatermarkPattern = "center"
	PatternGrid   WatermarkPattern = "grid"
	PatternTile   WatermarkPattern = "tile"
)

// Watermark is a text watermark drawn on top of every page.
type Watermark struct {
	Text     string           `json:"text"`
	FontSize float64          `json:"fontSize"`
	Color    string           `json:"color"`
	Opacity  float64          `json:"opacity"`
	Angle    float64          `json:"angle"`
	Pattern  WatermarkPattern `json:"pattern"`
	Density  int              `json:"density"`
}

// Validate checks the pattern and the numeric ranges.
func (w Watermark) Validate() error {
	switch w.Pattern {
	case PatternCenter, PatternGrid, PatternTile:
	default:
		return fmt.Errorf("unknown watermark pattern %q", string(w.Pattern))
	}
	if w.Opacity < 0 || w.Opacity > 1 {
		return fmt.Errorf("watermark opacity %v out of range", w.Opacity)
	}
	return nil
}

// EffectiveDensity returns the density with a floor of 1.
func (w Watermark) EffectiveDensity() int {
	if w.Density < 1 {
		return 1
	}
	return w.Density
}
