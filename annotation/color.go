package annotation

import (
	"image/color"
	"strconv"
	"strings"
)

// RedactColor is the fixed overlay color of the redact tool.
var RedactColor = color.RGBA{A: 0xff}

// ParseColor decodes "#rgb", "#rrggbb" or "#rrggbbaa". Anything else
// yields opaque black so a malformed color never drops an annotation.
func ParseColor(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6, 8:
	default:
		return color.RGBA{A: 0xff}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	if len(s) == 8 {
		return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
