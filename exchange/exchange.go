// Package exchange reads and writes the portable JSON annotation export.
package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wudi/pdfmarkup/annotation"
)

// Version is written into every export.
const Version = "1.0"

// ErrInvalid is returned for an import that lacks a required key.
var ErrInvalid = errors.New("exchange: invalid export data")

// Data is the export document. Page keys are 1-based.
type Data struct {
	Version          string                              `json:"version"`
	DocID            string                              `json:"docId"`
	TotalPages       int                                 `json:"totalPages"`
	Annotations      map[int][]annotation.Stroke         `json:"annotations"`
	TextAnnotations  map[int][]annotation.TextAnnotation `json:"textAnnotations,omitempty"`
	ShapeAnnotations map[int][]annotation.Shape          `json:"shapeAnnotations,omitempty"`
	ExportedAt       time.Time                           `json:"exportedAt"`
}

// FromDocument builds export data from an annotation set.
func FromDocument(doc *annotation.Document, totalPages int, now time.Time) Data {
	strokes := annotation.CloneStrokes(doc.Strokes)
	if strokes == nil {
		strokes = map[int][]annotation.Stroke{}
	}
	d := Data{
		Version:     Version,
		DocID:       doc.ID,
		TotalPages:  totalPages,
		Annotations: strokes,
		ExportedAt:  now.UTC(),
	}
	if len(doc.Texts) > 0 {
		d.TextAnnotations = annotation.CloneTexts(doc.Texts)
	}
	if len(doc.Shapes) > 0 {
		d.ShapeAnnotations = annotation.CloneShapes(doc.Shapes)
	}
	return d
}

// Document converts the data back into an annotation set.
func (d Data) Document() *annotation.Document {
	doc := annotation.NewDocument(d.DocID)
	doc.Strokes = annotation.CloneStrokes(d.Annotations)
	if d.TextAnnotations != nil {
		doc.Texts = annotation.CloneTexts(d.TextAnnotations)
	}
	if d.ShapeAnnotations != nil {
		doc.Shapes = annotation.CloneShapes(d.ShapeAnnotations)
	}
	return doc
}

// Export writes d as indented JSON.
func Export(w io.Writer, d Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Import parses export JSON. docId, annotations and a numeric totalPages
// must be present; everything else is taken as given.
func Import(r io.Reader) (Data, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Data{}, fmt.Errorf("read export: %w", err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if v, ok := keys["docId"]; !ok || isNull(v) {
		return Data{}, fmt.Errorf("%w: missing docId", ErrInvalid)
	}
	if v, ok := keys["annotations"]; !ok || isNull(v) {
		return Data{}, fmt.Errorf("%w: missing annotations", ErrInvalid)
	}
	var pages float64
	if v, ok := keys["totalPages"]; !ok || isNull(v) || json.Unmarshal(v, &pages) != nil {
		return Data{}, fmt.Errorf("%w: totalPages must be a number", ErrInvalid)
	}

	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return d, nil
}

func isNull(v json.RawMessage) bool { return string(v) == "null" }
