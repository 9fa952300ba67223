package contentstream

import (
	"strings"
	"unicode/utf16"
)

// Font decodes the bytes of shown strings into text. The zero value
// decodes single bytes.
type Font struct {
	// CodeLen is the byte length of one character code.
	CodeLen int
	// ToUnicode maps character codes to text. Nil means codes are read as
	// single-byte characters.
	ToUnicode map[uint32]string
}

// maxRange caps a bfrange so a corrupt CMap cannot allocate without bound.
const maxRange = 1 << 16

// ParseCMap reads the codespace, bfchar and bfrange sections of a
// ToUnicode CMap program. codeLen is used when the CMap declares no
// codespace range.
func ParseCMap(src []byte, codeLen int) (*Font, error) {
	ops, err := Parse(src)
	f := &Font{CodeLen: codeLen, ToUnicode: make(map[uint32]string)}
	for _, op := range ops {
		args := op.Operands
		switch op.Operator {
		case "endcodespacerange":
			if len(args) > 0 && args[0].Kind == String && len(args[0].Bytes) > 0 {
				f.CodeLen = len(args[0].Bytes)
			}
		case "endbfchar":
			for i := 0; i+1 < len(args); i += 2 {
				if args[i].Kind == String && args[i+1].Kind == String {
					f.ToUnicode[code(args[i].Bytes)] = utf16BE(args[i+1].Bytes)
				}
			}
		case "endbfrange":
			for i := 0; i+2 < len(args); i += 3 {
				f.bfrange(args[i], args[i+1], args[i+2])
			}
		}
	}
	if f.CodeLen <= 0 {
		f.CodeLen = 1
	}
	return f, err
}

func (f *Font) bfrange(lo, hi, dst Operand) {
	if lo.Kind != String || hi.Kind != String {
		return
	}
	start, end := code(lo.Bytes), code(hi.Bytes)
	if end < start || end-start >= maxRange {
		return
	}
	switch dst.Kind {
	case String:
		units := utf16Units(dst.Bytes)
		if len(units) == 0 {
			return
		}
		for c := start; c <= end; c++ {
			out := append([]uint16(nil), units...)
			out[len(out)-1] += uint16(c - start)
			f.ToUnicode[c] = string(utf16.Decode(out))
		}
	case Array:
		for i, item := range dst.Items {
			c := start + uint32(i)
			if c > end {
				break
			}
			if item.Kind == String {
				f.ToUnicode[c] = utf16BE(item.Bytes)
			}
		}
	}
}

// Decode converts shown bytes to text. Codes missing from the map are
// dropped.
func (f *Font) Decode(b []byte) string {
	if f == nil || f.ToUnicode == nil {
		return decode(b)
	}
	n := f.CodeLen
	if n <= 0 {
		n = 1
	}
	var sb strings.Builder
	for i := 0; i+n <= len(b); i += n {
		if s, ok := f.ToUnicode[code(b[i:i+n])]; ok {
			sb.WriteString(s)
		}
	}
	return printable([]rune(sb.String()))
}

func code(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

func utf16Units(b []byte) []uint16 {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return units
}

func utf16BE(b []byte) string {
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	return string(utf16.Decode(utf16Units(b)))
}
