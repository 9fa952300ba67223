package contentstream

import (
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/wudi/pdfmarkup/coords"
	"github.com/wudi/pdfmarkup/toc"
)

// Without font metrics every glyph advances by half an em.
const defaultAdvance = 0.5

type graphicsState struct {
	ctm   coords.Matrix
	stack []coords.Matrix
}

func (gs *graphicsState) save() { gs.stack = append(gs.stack, gs.ctm) }

func (gs *graphicsState) restore() {
	if n := len(gs.stack); n > 0 {
		gs.ctm = gs.stack[n-1]
		gs.stack = gs.stack[:n-1]
	}
}

type textState struct {
	fontSize    float64
	leading     float64
	charSpacing float64
	wordSpacing float64
	hScale      float64
	tm, tlm     coords.Matrix
}

func (ts *textState) moveLine(tx, ty float64) {
	ts.tlm = coords.Translate(tx, ty).Multiply(ts.tlm)
	ts.tm = ts.tlm
}

// TextRuns replays ops and returns one run per text-showing operator.
// Coordinates are converted to a top-left origin using the page's upper
// edge top. fonts maps resource names selected by Tf to their decoders;
// unknown fonts decode as single bytes.
func TextRuns(ops []Operation, top float64, fonts map[string]*Font) []toc.TextRun {
	gs := &graphicsState{ctm: coords.Identity()}
	ts := &textState{hScale: 1, tm: coords.Identity(), tlm: coords.Identity()}
	var (
		runs []toc.TextRun
		font *Font
	)

	show := func(parts []Operand) {
		var sb strings.Builder
		m := ts.tm.Multiply(gs.ctm)
		origin := m.Transform(coords.Point{})
		for _, p := range parts {
			switch p.Kind {
			case String:
				text := font.Decode(p.Bytes)
				sb.WriteString(text)
				ts.advance(text)
			case Number:
				// Kerning in thousandths of an em; large gaps read as spaces.
				if p.Num < -200 {
					sb.WriteByte(' ')
				}
				ts.tm = coords.Translate(-p.Num/1000*ts.fontSize*ts.hScale, 0).Multiply(ts.tm)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			return
		}
		runs = append(runs, toc.TextRun{
			Text:      text,
			X:         origin.X,
			Y:         top - origin.Y,
			FontSize:  ts.fontSize,
			Transform: m,
		})
	}

	for _, op := range ops {
		args := op.Operands
		switch op.Operator {
		case "q":
			gs.save()
		case "Q":
			gs.restore()
		case "cm":
			if m, ok := matrix(args); ok {
				gs.ctm = m.Multiply(gs.ctm)
			}
		case "BT":
			ts.tm, ts.tlm = coords.Identity(), coords.Identity()
		case "Tf":
			if len(args) == 2 {
				font = fonts[args[0].Name]
				ts.fontSize = num(args[1])
			}
		case "TL":
			if len(args) == 1 {
				ts.leading = num(args[0])
			}
		case "Tc":
			if len(args) == 1 {
				ts.charSpacing = num(args[0])
			}
		case "Tw":
			if len(args) == 1 {
				ts.wordSpacing = num(args[0])
			}
		case "Tz":
			if len(args) == 1 {
				ts.hScale = num(args[0]) / 100
			}
		case "Tm":
			if m, ok := matrix(args); ok {
				ts.tm, ts.tlm = m, m
			}
		case "Td":
			if len(args) == 2 {
				ts.moveLine(num(args[0]), num(args[1]))
			}
		case "TD":
			if len(args) == 2 {
				ts.leading = -num(args[1])
				ts.moveLine(num(args[0]), num(args[1]))
			}
		case "T*":
			ts.moveLine(0, -ts.leading)
		case "Tj":
			if len(args) == 1 {
				show(args)
			}
		case "TJ":
			if len(args) == 1 && args[0].Kind == Array {
				show(args[0].Items)
			}
		case "'":
			ts.moveLine(0, -ts.leading)
			if len(args) == 1 {
				show(args)
			}
		case "\"":
			if len(args) == 3 {
				ts.wordSpacing, ts.charSpacing = num(args[0]), num(args[1])
				ts.moveLine(0, -ts.leading)
				show(args[2:])
			}
		}
	}
	return runs
}

func (ts *textState) advance(text string) {
	var w float64
	for _, r := range text {
		w += defaultAdvance*ts.fontSize + ts.charSpacing
		if r == ' ' {
			w += ts.wordSpacing
		}
	}
	ts.tm = coords.Translate(w*ts.hScale, 0).Multiply(ts.tm)
}

func num(o Operand) float64 {
	if o.Kind == Number {
		return o.Num
	}
	return 0
}

func matrix(args []Operand) (coords.Matrix, bool) {
	if len(args) != 6 {
		return coords.Matrix{}, false
	}
	var m coords.Matrix
	for i, a := range args {
		if a.Kind != Number {
			return coords.Matrix{}, false
		}
		m[i] = a.Num
	}
	return m, true
}

// decode reads UTF-16BE strings with a byte order mark and treats anything
// else as a single-byte encoding. Control characters are dropped.
func decode(b []byte) string {
	var runes []rune
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		runes = utf16.Decode(utf16Units(b[2:]))
	} else {
		runes = make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
	}
	return printable(runes)
}

func printable(runes []rune) string {
	var sb strings.Builder
	for _, r := range runes {
		if unicode.IsPrint(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
