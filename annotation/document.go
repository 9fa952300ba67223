package annotation

// Document is every annotation collection of one document, keyed by
// 1-based page number where the collection is per page.
type Document struct {
	ID         string                   `json:"docId"`
	Strokes    map[int][]Stroke         `json:"annotations"`
	Texts      map[int][]TextAnnotation `json:"textAnnotations,omitempty"`
	Shapes     map[int][]Shape          `json:"shapeAnnotations,omitempty"`
	Signatures []Signature              `json:"signatures,omitempty"`
	FormValues map[string]string        `json:"formValues,omitempty"`
	Watermark  *Watermark               `json:"watermark,omitempty"`
	Rotations  Rotations                `json:"rotations,omitempty"`
}

// NewDocument returns an empty document with initialized collections.
func NewDocument(id string) *Document {
	return &Document{
		ID:         id,
		Strokes:    make(map[int][]Stroke),
		Texts:      make(map[int][]TextAnnotation),
		Shapes:     make(map[int][]Shape),
		FormValues: make(map[string]string),
		Rotations:  make(Rotations),
	}
}

// Clone returns a deep copy that shares no mutable state with d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		ID:         d.ID,
		Strokes:    CloneStrokes(d.Strokes),
		Texts:      CloneTexts(d.Texts),
		Shapes:     CloneShapes(d.Shapes),
		FormValues: CloneValues(d.FormValues),
		Rotations:  d.Rotations.Clone(),
	}
	if d.Signatures != nil {
		out.Signatures = append([]Signature(nil), d.Signatures...)
	}
	if d.Watermark != nil {
		w := *d.Watermark
		out.Watermark = &w
	}
	return out
}

// Pages returns the highest page number carrying any per-page annotation.
func (d *Document) Pages() int {
	max := 0
	for p := range d.Strokes {
		if p > max {
			max = p
		}
	}
	for p := range d.Texts {
		if p > max {
			max = p
		}
	}
	for p := range d.Shapes {
		if p > max {
			max = p
		}
	}
	return max
}

func CloneStrokes(in map[int][]Stroke) map[int][]Stroke {
	if in == nil {
		return nil
	}
	out := make(map[int][]Stroke, len(in))
	for page, list := range in {
		cp := make([]Stroke, len(list))
		for i, s := range list {
			cp[i] = s.Clone()
		}
		out[page] = cp
	}
	return out
}

func CloneTexts(in map[int][]TextAnnotation) map[int][]TextAnnotation {
	if in == nil {
		return nil
	}
	out := make(map[int][]TextAnnotation, len(in))
	for page, list := range in {
		cp := make([]TextAnnotation, len(list))
		for i, t := range list {
			cp[i] = t.Clone()
		}
		out[page] = cp
	}
	return out
}

func CloneShapes(in map[int][]Shape) map[int][]Shape {
	if in == nil {
		return nil
	}
	out := make(map[int][]Shape, len(in))
	for page, list := range in {
		cp := make([]Shape, len(list))
		for i, s := range list {
			cp[i] = s.Clone()
		}
		out[page] = cp
	}
	return out
}

func CloneValues(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
