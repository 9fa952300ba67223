// Package contentstream parses page content streams and recovers the text
// runs drawn on a page.
package contentstream

import (
	"errors"
	"fmt"
)

// Kind classifies an operand.
type Kind int

const (
	Number Kind = iota
	Name
	String
	Array
	Dict
	Keyword
)

// Operand is one argument of an operator.
type Operand struct {
	Kind  Kind
	Num   float64
	Name  string
	Bytes []byte
	Items []Operand
}

// Operation is an operator with the operands that precede it.
type Operation struct {
	Operator string
	Operands []Operand
}

var errUnbalanced = errors.New("unbalanced array or dictionary")

const maxDepth = 32

// Parse splits src into operations. Inline image data is skipped and
// dictionary operands are kept opaque.
func Parse(src []byte) ([]Operation, error) {
	s := &scanner{data: src}
	var (
		ops     []Operation
		pending []Operand
	)
	for {
		tok, ok, err := s.next()
		if err != nil {
			return ops, fmt.Errorf("offset %d: %w", s.pos, err)
		}
		if !ok {
			return ops, nil
		}
		if tok.typ == tokenKeyword {
			switch tok.text {
			case "true", "false", "null":
				pending = append(pending, Operand{Kind: Keyword, Name: tok.text})
				continue
			case "ID":
				s.skipInlineImage()
				pending = pending[:0]
				continue
			}
			ops = append(ops, Operation{Operator: tok.text, Operands: pending})
			pending = nil
			continue
		}
		op, err := s.operand(tok, 0)
		if err != nil {
			return ops, fmt.Errorf("offset %d: %w", s.pos, err)
		}
		pending = append(pending, op)
	}
}

func (s *scanner) operand(tok token, depth int) (Operand, error) {
	if depth > maxDepth {
		return Operand{}, errUnbalanced
	}
	switch tok.typ {
	case tokenNumber:
		return Operand{Kind: Number, Num: tok.num}, nil
	case tokenName:
		return Operand{Kind: Name, Name: tok.text}, nil
	case tokenString:
		return Operand{Kind: String, Bytes: tok.bytes}, nil
	case tokenArrayOpen:
		return s.collect(Array, tokenArrayClose, depth)
	case tokenDictOpen:
		return s.collect(Dict, tokenDictClose, depth)
	case tokenKeyword:
		return Operand{Kind: Keyword, Name: tok.text}, nil
	}
	return Operand{}, errUnbalanced
}

func (s *scanner) collect(kind Kind, end tokenType, depth int) (Operand, error) {
	out := Operand{Kind: kind}
	for {
		tok, ok, err := s.next()
		if err != nil {
			return Operand{}, err
		}
		if !ok {
			return Operand{}, errUnbalanced
		}
		if tok.typ == end {
			return out, nil
		}
		if tok.typ == tokenArrayClose || tok.typ == tokenDictClose {
			return Operand{}, errUnbalanced
		}
		item, err := s.operand(tok, depth+1)
		if err != nil {
			return Operand{}, err
		}
		out.Items = append(out.Items, item)
	}
}
