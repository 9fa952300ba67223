package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/wudi/pdfmarkup/pdfdoc"
)

// ErrPageRange is returned for an invalid page range.
var ErrPageRange = errors.New("convert: invalid page range")

// Split writes pages from..to (1-based, inclusive) of pdf to w.
func Split(ctx context.Context, pdf []byte, from, to int, w io.Writer) error {
	n, err := pdfdoc.PageCount(ctx, pdf)
	if err != nil {
		return err
	}
	if from < 1 || to < from || to > n {
		return fmt.Errorf("%w: %d-%d of %d pages", ErrPageRange, from, to, n)
	}
	sel := []string{fmt.Sprintf("%d-%d", from, to)}
	if err := api.Trim(bytes.NewReader(pdf), w, sel, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("trim: %w", err)
	}
	return nil
}
