// Package layout breaks text into lines for a given width. Widths come
// from a caller supplied measurement function, so the same routine serves
// the canvas preview (pixel metrics) and the baked output (font metrics).
package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wudi/pdfmarkup/fonts"
)

// MeasureFunc returns the rendered width of s.
type MeasureFunc func(s string) float64

// Option configures Wrap.
type Option func(*config)

type config struct {
	kinsoku bool
}

// WithoutLineBreakRules disables the Japanese rules that keep closing
// punctuation off the start of a line and opening brackets off the end.
func WithoutLineBreakRules() Option {
	return func(c *config) { c.kinsoku = false }
}

// Japanese line-breaking rules: runes that may not start a line and runes
// that may not end one.
const (
	noLineStart = "、。，．・：；？！ー～…‥ゝゞヽヾぁぃぅぇぉっゃゅょゎァィゥェォッャュョヮヵヶ）」』】〕〉》］｝)]},.!?:;%"
	noLineEnd   = "（「『【〔〈《［｛([{"
)

// Wrap splits text into lines no wider than maxWidth. Explicit line breaks
// always start a new line; inside a paragraph words are packed greedily.
// A word wider than maxWidth on its own is broken between characters, and
// CJK text may break between any two characters. The result depends only
// on the inputs and measure.
func Wrap(text string, maxWidth float64, measure MeasureFunc, opts ...Option) []string {
	cfg := config{kinsoku: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if maxWidth <= 0 || measure(para) <= maxWidth {
			lines = append(lines, para)
			continue
		}
		w := &wrapper{max: maxWidth, measure: measure, cfg: cfg}
		for _, a := range atoms(para) {
			w.add(a)
		}
		lines = append(lines, w.finish()...)
	}
	return lines
}

// atom is an unbreakable piece of a paragraph: a non-CJK run or a single
// CJK rune. space marks atoms preceded by whitespace.
type atom struct {
	text  string
	space bool
}

func atoms(para string) []atom {
	var out []atom
	for i, word := range strings.Fields(para) {
		space := i > 0
		var run strings.Builder
		flush := func() {
			if run.Len() > 0 {
				out = append(out, atom{text: run.String(), space: space})
				space = false
				run.Reset()
			}
		}
		for _, r := range word {
			if fonts.IsCJK(r) {
				flush()
				out = append(out, atom{text: string(r), space: space})
				space = false
				continue
			}
			run.WriteRune(r)
		}
		flush()
	}
	return out
}

type wrapper struct {
	max     float64
	measure MeasureFunc
	cfg     config
	lines   []string
	line    string
}

func (w *wrapper) add(a atom) {
	if w.line == "" {
		w.start(a.text)
		return
	}
	sep := ""
	if a.space {
		sep = " "
	}
	if cand := w.line + sep + a.text; w.measure(cand) <= w.max {
		w.line = cand
		return
	}
	line, carry := w.line, ""
	if !a.space && w.cfg.kinsoku {
		line, carry = w.shift(line, a.text)
	}
	w.lines = append(w.lines, line)
	w.line = ""
	w.start(carry + a.text)
}

// shift moves runes from the end of line to the next one when breaking
// before next would violate a line-breaking rule.
func (w *wrapper) shift(line, next string) (string, string) {
	carry := ""
	first, _ := utf8.DecodeRuneInString(next)
	if strings.ContainsRune(noLineStart, first) {
		line, carry = splitLast(line, carry)
	}
	if last, _ := utf8.DecodeLastRuneInString(line); strings.ContainsRune(noLineEnd, last) {
		line, carry = splitLast(line, carry)
	}
	return line, carry
}

func splitLast(line, carry string) (string, string) {
	if utf8.RuneCountInString(line) < 2 {
		return line, carry
	}
	r, size := utf8.DecodeLastRuneInString(line)
	return strings.TrimRightFunc(line[:len(line)-size], unicode.IsSpace), string(r) + carry
}

// start begins a new line with s, breaking it between characters when it
// does not fit on its own.
func (w *wrapper) start(s string) {
	if w.measure(s) <= w.max {
		w.line = s
		return
	}
	var chunk []rune
	for _, r := range s {
		if len(chunk) > 0 && w.measure(string(chunk)+string(r)) > w.max {
			var next []rune
			if w.cfg.kinsoku && strings.ContainsRune(noLineStart, r) && len(chunk) > 1 {
				next = chunk[len(chunk)-1:]
				chunk = chunk[:len(chunk)-1]
			}
			w.lines = append(w.lines, string(chunk))
			chunk = append([]rune{}, next...)
		}
		chunk = append(chunk, r)
	}
	w.line = string(chunk)
}

func (w *wrapper) finish() []string {
	if w.line != "" {
		w.lines = append(w.lines, w.line)
	}
	return w.lines
}
