package contentstream

import (
	"bytes"
	"errors"
	"strconv"
)

type tokenType int

const (
	tokenNumber tokenType = iota
	tokenName
	tokenString
	tokenArrayOpen
	tokenArrayClose
	tokenDictOpen
	tokenDictClose
	tokenKeyword
)

type token struct {
	typ   tokenType
	num   float64
	text  string
	bytes []byte
}

var errUnterminated = errors.New("unterminated string")

// scanner tokenizes a decoded content stream held in memory.
type scanner struct {
	data []byte
	pos  int
}

func isWhitespace(c byte) bool {
	return c == 0x00 || c == 0x09 || c == 0x0A || c == 0x0C || c == 0x0D || c == 0x20
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isWhitespace(c)
}

func (s *scanner) skipWSAndComments() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		return
	}
}

// next returns the next token; ok is false at end of input.
func (s *scanner) next() (tok token, ok bool, err error) {
	s.skipWSAndComments()
	if s.pos >= len(s.data) {
		return token{}, false, nil
	}
	c := s.data[s.pos]
	switch c {
	case '<':
		if s.peek(1) == '<' {
			s.pos += 2
			return token{typ: tokenDictOpen}, true, nil
		}
		return s.hexString()
	case '>':
		s.pos++
		if s.peek(0) == '>' {
			s.pos++
			return token{typ: tokenDictClose}, true, nil
		}
		return token{typ: tokenKeyword, text: ">"}, true, nil
	case '[':
		s.pos++
		return token{typ: tokenArrayOpen}, true, nil
	case ']':
		s.pos++
		return token{typ: tokenArrayClose}, true, nil
	case '(':
		return s.literalString()
	case '/':
		return s.name(), true, nil
	}
	start := s.pos
	for s.pos < len(s.data) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		s.pos++
	}
	word := string(s.data[start:s.pos])
	if isNumberStart(word[0]) {
		if v, err := strconv.ParseFloat(word, 64); err == nil {
			return token{typ: tokenNumber, num: v}, true, nil
		}
	}
	return token{typ: tokenKeyword, text: word}, true, nil
}

func isNumberStart(c byte) bool { return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') }

func (s *scanner) peek(off int) byte {
	if s.pos+off >= len(s.data) {
		return 0
	}
	return s.data[s.pos+off]
}

func (s *scanner) name() token {
	s.pos++
	var out bytes.Buffer
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isDelimiter(c) {
			break
		}
		if c == '#' && s.pos+2 < len(s.data) {
			if v, err := strconv.ParseUint(string(s.data[s.pos+1:s.pos+3]), 16, 8); err == nil {
				out.WriteByte(byte(v))
				s.pos += 3
				continue
			}
		}
		out.WriteByte(c)
		s.pos++
	}
	return token{typ: tokenName, text: out.String()}
}

func (s *scanner) literalString() (token, bool, error) {
	s.pos++
	var buf bytes.Buffer
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return token{typ: tokenString, bytes: buf.Bytes()}, true, nil
			}
		case '\\':
			if s.pos >= len(s.data) {
				return token{}, false, errUnterminated
			}
			esc := s.data[s.pos]
			s.pos++
			switch esc {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				if s.peek(0) == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if esc >= '0' && esc <= '7' {
					v := int(esc - '0')
					for k := 0; k < 2 && s.pos < len(s.data); k++ {
						d := s.data[s.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v<<3 + int(d-'0')
						s.pos++
					}
					buf.WriteByte(byte(v))
					continue
				}
				buf.WriteByte(esc)
			}
			continue
		}
		buf.WriteByte(c)
	}
	return token{}, false, errUnterminated
}

func (s *scanner) hexString() (token, bool, error) {
	s.pos++
	var digits []byte
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			out := make([]byte, len(digits)/2)
			for i := range out {
				v, _ := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
				out[i] = byte(v)
			}
			return token{typ: tokenString, bytes: out}, true, nil
		}
		if isWhitespace(c) {
			continue
		}
		digits = append(digits, c)
	}
	return token{}, false, errUnterminated
}

// skipInlineImage moves past the binary data that follows an ID operator.
func (s *scanner) skipInlineImage() {
	if s.pos < len(s.data) && isWhitespace(s.data[s.pos]) {
		s.pos++
	}
	for s.pos+1 < len(s.data) {
		if s.data[s.pos] == 'E' && s.data[s.pos+1] == 'I' &&
			(s.pos == 0 || isWhitespace(s.data[s.pos-1])) &&
			(s.pos+2 == len(s.data) || isDelimiter(s.data[s.pos+2])) {
			s.pos += 2
			return
		}
		s.pos++
	}
	s.pos = len(s.data)
}
