package annotation

import "fmt"

// FieldType is the kind of an interactive form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldCheckbox FieldType = "checkbox"
	FieldDropdown FieldType = "dropdown"
	FieldRadio    FieldType = "radio"
	FieldButton   FieldType = "button"
)

// Validate rejects unknown field types.
func (t FieldType) Validate() error {
	switch t {
	case FieldText, FieldCheckbox, FieldDropdown, FieldRadio, FieldButton:
		return nil
	}
	return fmt.Errorf("unknown field type %q", string(t))
}

// Rect is a rectangle in PDF page space (origin bottom-left).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FormField is an interactive form field captured from the source
// document. PageNumber is 1-based.
type FormField struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Type              FieldType `json:"type"`
	PageNumber        int       `json:"pageNumber"`
	Rect              Rect      `json:"rect"`
	Value             string    `json:"value"`
	Options           []string  `json:"options,omitempty"`
	ReadOnly          bool      `json:"readOnly,omitempty"`
	Required          bool      `json:"required,omitempty"`
	MaxLength         int       `json:"maxLength,omitempty"`
	CalculationScript string    `json:"calculationScript,omitempty"`
}

// Clone returns a deep copy.
func (f FormField) Clone() FormField {
	out := f
	if f.Options != nil {
		out.Options = append([]string(nil), f.Options...)
	}
	return out
}

// Checked reports whether a checkbox or radio value selects the field.
func Checked(value string) bool {
	switch value {
	case "", "false", "False", "FALSE", "0", "off", "Off", "no", "No":
		return false
	}
	return true
}
