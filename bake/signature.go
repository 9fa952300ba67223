package bake

import (
	"errors"
	"image/color"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/fonts"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

const signaturePadding = 4

var (
	signatureBorder = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	signatureInk    = color.RGBA{A: 0xff}
)

func (b *baker) signatures(sigs []annotation.Signature) {
	for i, sig := range sigs {
		if err := b.signature(i, sig); err != nil {
			b.skip(sig.Position.PageNumber, "signature", i, err)
		}
	}
}

// signature draws a bordered block with an optional image and the signer
// metadata. With an image the metadata sits beside it; without one the
// lines stack from the top of the box.
func (b *baker) signature(index int, sig annotation.Signature) error {
	page, err := b.page(sig.Position.PageNumber)
	if err != nil {
		return err
	}
	pos := sig.Position
	W, H := page.Width, page.Height
	bw, bh := pos.Width*W, pos.Height*H
	if bw <= 0 || bh <= 0 {
		return errors.New("signature box has no area")
	}
	bx, top := pos.X*W, H-pos.Y*H
	by := top - bh
	page.StrokeRect(bx, by, bw, bh, pdfdoc.Stroke{Color: signatureBorder, Width: 1, Opacity: 1})

	size := sig.FontSize
	if size <= 0 {
		size = annotation.DefaultSignatureFontSize
	}
	textX, textTop := bx+signaturePadding, top-signaturePadding

	switch {
	case sig.SignatureImage != "":
		if x, err := b.signatureImage(page, sig, bx, by, bw, bh); err != nil {
			b.skip(pos.PageNumber, "signature-image", index, err)
		} else {
			textX = x + signaturePadding
		}
	case sig.SignatureText != "":
		big := size * 2
		if err := b.rasterLine(page, sig.SignatureText, textX, textTop-big, big); err != nil {
			b.skip(pos.PageNumber, "signature-text", index, err)
		}
		textTop -= big * annotation.LineHeightFactor
	}

	for i, line := range sig.MetadataLines() {
		baseline := textTop - size - float64(i)*size*annotation.LineHeightFactor
		if err := b.rasterLine(page, line, textX, baseline, size); err != nil {
			b.skip(pos.PageNumber, "signature-line", index, err)
		}
	}
	return nil
}

// signatureImage draws the image left-aligned and vertically centred in
// the box, scaled within the width and height caps, and returns its right
// edge.
func (b *baker) signatureImage(page *pdfdoc.Page, sig annotation.Signature, bx, by, bw, bh float64) (float64, error) {
	img, err := annotation.DecodeImage(sig.SignatureImage)
	if err != nil {
		return 0, err
	}
	bm, err := pdfdoc.NewBitmap(img)
	if err != nil {
		return 0, err
	}
	capW, capH := sig.ImageCaps()
	iw, ih := annotation.FitImage(float64(bm.Width), float64(bm.Height), bw*capW-2*signaturePadding, bh*capH-2*signaturePadding)
	if iw <= 0 || ih <= 0 {
		return 0, errors.New("signature box too small for image")
	}
	x := bx + signaturePadding
	page.DrawImage(bm, x, by+(bh-ih)/2, iw, ih, 1)
	return x + iw, nil
}

// rasterLine draws one line as an image so any script renders, falling
// back to the built-in font when rasterization fails.
func (b *baker) rasterLine(page *pdfdoc.Page, text string, x, baseline, size float64) error {
	r := &fonts.Raster{R: b.e.rasterizer}
	if err := r.Draw(page, text, x, baseline, size, signatureInk, 1); err == nil {
		return nil
	}
	return b.e.text.Native.Draw(page, text, x, baseline, size, signatureInk, 1)
}
