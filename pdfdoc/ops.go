package pdfdoc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
)

// Op is one primitive drawing operation. The set is closed: Line, Rect,
// Circle, Text and Image.
type Op interface{ isOp() }

// Stroke describes an outline. An Opacity of zero means opaque.
type Stroke struct {
	Color   color.RGBA
	Width   float64
	Opacity float64
}

// Fill describes an area fill. An Opacity of zero means opaque.
type Fill struct {
	Color   color.RGBA
	Opacity float64
}

// Line is a straight segment with round caps.
type Line struct {
	X1, Y1, X2, Y2 float64
	Stroke         Stroke
}

// Rect is an axis-aligned rectangle with its lower-left corner at X,Y.
// Either Fill or Stroke (or both) is set.
type Rect struct {
	X, Y, W, H float64
	Fill       *Fill
	Stroke     *Stroke
}

// Circle is centred at X,Y.
type Circle struct {
	X, Y, R float64
	Fill    *Fill
	Stroke  *Stroke
}

// Text is a run in the built-in Helvetica font with its baseline starting at
// X,Y. Only printable ASCII is representable.
type Text struct {
	X, Y    float64
	Text    string
	Size    float64
	Color   color.RGBA
	Opacity float64
}

// Image places a bitmap into the rectangle with lower-left corner X,Y.
type Image struct {
	X, Y, W, H float64
	Bitmap     *Bitmap
	Opacity    float64
}

func (Line) isOp()   {}
func (Rect) isOp()   {}
func (Circle) isOp() {}
func (Text) isOp()   {}
func (Image) isOp()  {}

var bitmapSeq atomic.Int64

// Bitmap is an encoded raster image. A bitmap drawn many times (watermark
// tiles) is embedded once.
type Bitmap struct {
	ID     string
	PNG    []byte
	Width  int
	Height int
}

// NewBitmap encodes img as PNG.
func NewBitmap(img image.Image) (*Bitmap, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &Bitmap{
		ID:     fmt.Sprintf("bm%d", bitmapSeq.Add(1)),
		PNG:    buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
