// Package convert holds auxiliary document conversions.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"codeberg.org/go-pdf/fpdf"
)

// ErrNoImages is returned when ImagesToPDF gets nothing to convert.
var ErrNoImages = errors.New("convert: no images")

// Image is an encoded PNG, JPEG or GIF.
type Image struct {
	Name string
	Data []byte
}

var fpdfTypes = map[string]string{"png": "PNG", "jpeg": "JPG", "gif": "GIF"}

// ImagesToPDF writes one page per image, each page sized to its image at
// 72 dpi so one pixel maps to one point.
func ImagesToPDF(ctx context.Context, images []Image, w io.Writer) error {
	if len(images) == 0 {
		return ErrNoImages
	}
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			return fmt.Errorf("image %d (%s): %w", i+1, img.Name, err)
		}
		typ, ok := fpdfTypes[format]
		if !ok {
			return fmt.Errorf("image %d (%s): unsupported format %s", i+1, img.Name, format)
		}
		wd, ht := float64(cfg.Width), float64(cfg.Height)
		name := fmt.Sprintf("img%d", i)
		opt := fpdf.ImageOptions{ImageType: typ}
		pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(img.Data))
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: wd, Ht: ht})
		pdf.ImageOptions(name, 0, 0, wd, ht, false, opt, 0, "")
		if pdf.Err() {
			return fmt.Errorf("image %d (%s): %w", i+1, img.Name, pdf.Error())
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
