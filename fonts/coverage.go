package fonts

import (
	"strings"
	"sync"

	"codeberg.org/go-pdf/fpdf"
)

// Printable ASCII is the only range the built-in Helvetica can encode.
const (
	firstPrintable = 0x20
	lastPrintable  = 0x7E
)

// Covers reports whether every rune of s can be drawn with the built-in
// font.
func Covers(s string) bool {
	for _, r := range s {
		if r < firstPrintable || r > lastPrintable {
			return false
		}
	}
	return true
}

// ASCIIOnly drops every rune the built-in font cannot draw.
func ASCIIOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r < firstPrintable || r > lastPrintable {
			return -1
		}
		return r
	}, s)
}

// Helvetica measures strings in the built-in Helvetica font using the core
// font metrics shipped with fpdf.
type Helvetica struct {
	mu  sync.Mutex
	pdf *fpdf.Fpdf
}

// NewHelvetica returns metrics for the built-in font.
func NewHelvetica() *Helvetica {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	return &Helvetica{pdf: pdf}
}

// Width returns the advance of s at size points. Runes outside printable
// ASCII are ignored.
func (h *Helvetica) Width(s string, size float64) float64 {
	s = ASCIIOnly(s)
	if s == "" || size <= 0 {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pdf.SetFontSize(size)
	return h.pdf.GetStringWidth(s)
}
