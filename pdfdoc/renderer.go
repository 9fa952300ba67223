package pdfdoc

import (
	"context"
	"image"
)

// Viewport maps a page onto a pixel canvas at a given scale.
type Viewport struct {
	Width  float64
	Height float64
	Scale  float64
}

// Renderer is the page rendering engine used by the interactive preview
// and by OCR. Pages are 1-based. Implementations wrap an external PDF
// rasterizer.
type Renderer interface {
	NumPages() int
	PageSize(page int) (Size, error)
	Viewport(page int, scale float64) (Viewport, error)
	Render(ctx context.Context, page int, scale float64) (image.Image, error)
}
