// Package ocr recognizes text on rendered document pages through a
// pluggable engine.
package ocr

import "context"

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Region describes a rectangular area in pixel coordinates with the origin in
// the upper-left corner of the image.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input is one image submitted for recognition.
type Input struct {
	// ID is echoed back in the Result.
	ID     string
	Image  []byte
	Format ImageFormat
	// Page is the 1-based page the image was rendered from.
	Page int
	// DPI is the effective resolution of Image; zero means unknown.
	DPI int
	// Languages are trained data names such as "eng" or "jpn".
	Languages []string
	// Region restricts recognition to part of the image.
	Region *Region
	// Metadata passes engine-specific variables through.
	Metadata map[string]string
}

// Word is one recognized token. Confidence is in [0,1].
type Word struct {
	Text       string  `json:"text"`
	Bounds     Region  `json:"bounds"`
	Confidence float64 `json:"confidence"`
}

// Result is the recognized text of one input.
type Result struct {
	InputID    string  `json:"inputId"`
	Page       int     `json:"page"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
	Language   string  `json:"language,omitempty"`
}

// Engine recognizes one image at a time.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// BatchEngine handles several images in one call.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}
