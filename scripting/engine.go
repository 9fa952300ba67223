// Package scripting runs form calculation scripts in an embedded
// JavaScript runtime.
package scripting

import (
	"context"
)

// Engine represents a scripting engine.
type Engine interface {
	// Execute runs a script and returns its exported completion value.
	Execute(ctx context.Context, script string) (interface{}, error)

	// EvalNumber evaluates an expression that must produce a finite number.
	EvalNumber(ctx context.Context, expr string) (float64, error)

	// RegisterFields exposes form fields to scripts as getField(name).value.
	RegisterFields(fields FieldStore) error
}

// FieldStore is the form state visible to scripts.
type FieldStore interface {
	Value(name string) (string, bool)
	SetValue(name, value string)
}

// Values is a FieldStore over a plain map.
type Values map[string]string

func (v Values) Value(name string) (string, bool) {
	s, ok := v[name]
	return s, ok
}

func (v Values) SetValue(name, value string) { v[name] = value }
