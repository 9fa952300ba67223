package forms

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdfmarkup/annotation"
)

// Field flags.
const (
	flagReadOnly   = 1 << 0
	flagRequired   = 1 << 1
	flagRadio      = 1 << 15
	flagPushButton = 1 << 16
)

// PDFSource reads the AcroForm of a PDF with pdfcpu.
type PDFSource struct {
	Data []byte
}

// Widgets walks the field tree and returns its terminal fields.
func (s PDFSource) Widgets(ctx context.Context) ([]Widget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pctx, err := api.ReadContext(bytes.NewReader(s.Data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	catalog, err := pctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	w := &walker{ctx: pctx, pages: make(map[int]int)}
	if root, ok := w.dict(catalog["Pages"]); ok {
		w.indexPages(root, 0)
	}
	acro, ok := w.dict(catalog["AcroForm"])
	if !ok {
		return nil, nil
	}
	fields, _ := w.array(acro["Fields"])
	for _, f := range fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w.field(f, inherited{})
	}
	return w.out, nil
}

type inherited struct {
	name  string
	ft    string
	flags int
	value types.Object
}

type walker struct {
	ctx      *model.Context
	pages    map[int]int
	numPages int
	out      []Widget
}

func (w *walker) deref(o types.Object) types.Object {
	if o == nil {
		return nil
	}
	v, err := w.ctx.Dereference(o)
	if err != nil {
		return nil
	}
	return v
}

func (w *walker) dict(o types.Object) (types.Dict, bool) {
	d, ok := w.deref(o).(types.Dict)
	return d, ok
}

func (w *walker) array(o types.Object) (types.Array, bool) {
	a, ok := w.deref(o).(types.Array)
	return a, ok
}

func objectNumber(o types.Object) (int, bool) {
	switch r := o.(type) {
	case types.IndirectRef:
		return r.ObjectNumber.Value(), true
	case *types.IndirectRef:
		return r.ObjectNumber.Value(), true
	}
	return 0, false
}

// indexPages maps page object numbers to 1-based page numbers.
func (w *walker) indexPages(node types.Dict, depth int) {
	if depth > 64 {
		return
	}
	kids, _ := w.array(node["Kids"])
	for _, k := range kids {
		d, ok := w.dict(k)
		if !ok {
			continue
		}
		if t, _ := d["Type"].(types.Name); t == "Pages" {
			w.indexPages(d, depth+1)
			continue
		}
		w.numPages++
		if n, ok := objectNumber(k); ok {
			w.pages[n] = w.numPages
		}
	}
}

func (w *walker) field(o types.Object, parent inherited) {
	d, ok := w.dict(o)
	if !ok {
		return
	}
	cur := parent
	if t := text(w.deref(d["T"])); t != "" {
		if cur.name != "" {
			cur.name += "." + t
		} else {
			cur.name = t
		}
	}
	if ft, ok := d["FT"].(types.Name); ok {
		cur.ft = string(ft)
	}
	if ff, ok := w.deref(d["Ff"]).(types.Integer); ok {
		cur.flags = ff.Value()
	}
	if v, ok := d["V"]; ok {
		cur.value = w.deref(v)
	}

	kids, _ := w.array(d["Kids"])
	var fieldKids []types.Object
	for _, k := range kids {
		if kd, ok := w.dict(k); ok {
			if _, named := kd["T"]; named {
				fieldKids = append(fieldKids, k)
			}
		}
	}
	if len(fieldKids) > 0 {
		for _, k := range fieldKids {
			w.field(k, cur)
		}
		return
	}

	// Terminal field: the geometry lives on the field or on its first
	// widget kid.
	widget := d
	if len(kids) > 0 {
		if kd, ok := w.dict(kids[0]); ok {
			widget = kd
		}
	}
	typ, ok := fieldType(cur.ft, cur.flags)
	if !ok {
		return
	}
	out := Widget{
		Name:     cur.name,
		Type:     typ,
		Rect:     w.rect(widget["Rect"]),
		Value:    text(cur.value),
		ReadOnly: cur.flags&flagReadOnly != 0,
		Required: cur.flags&flagRequired != 0,
		Script:   w.calculation(d),
	}
	if n, ok := objectNumber(widget["P"]); ok {
		out.Page = w.pages[n]
	}
	if ml, ok := w.deref(d["MaxLen"]).(types.Integer); ok {
		out.MaxLength = ml.Value()
	}
	opts, _ := w.array(d["Opt"])
	for _, o := range opts {
		o = w.deref(o)
		if pair, ok := o.(types.Array); ok && len(pair) > 0 {
			o = w.deref(pair[len(pair)-1])
		}
		if s := text(o); s != "" {
			out.Options = append(out.Options, s)
		}
	}
	w.out = append(w.out, out)
}

func fieldType(ft string, flags int) (annotation.FieldType, bool) {
	switch ft {
	case "Tx":
		return annotation.FieldText, true
	case "Ch":
		return annotation.FieldDropdown, true
	case "Btn":
		switch {
		case flags&flagPushButton != 0:
			return annotation.FieldButton, true
		case flags&flagRadio != 0:
			return annotation.FieldRadio, true
		}
		return annotation.FieldCheckbox, true
	}
	return "", false
}

func (w *walker) rect(o types.Object) annotation.Rect {
	a, ok := w.array(o)
	if !ok || len(a) != 4 {
		return annotation.Rect{}
	}
	var v [4]float64
	for i, e := range a {
		v[i] = number(w.deref(e))
	}
	x0, y0, x1, y1 := min(v[0], v[2]), min(v[1], v[3]), max(v[0], v[2]), max(v[1], v[3])
	return annotation.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// calculation returns the JavaScript of the field's calculate action.
func (w *walker) calculation(d types.Dict) string {
	aa, ok := w.dict(d["AA"])
	if !ok {
		return ""
	}
	action, ok := w.dict(aa["C"])
	if !ok {
		return ""
	}
	js := w.deref(action["JS"])
	if sd, ok := js.(types.StreamDict); ok {
		if err := sd.Decode(); err == nil {
			return string(sd.Content)
		}
		return ""
	}
	return text(js)
}

func number(o types.Object) float64 {
	switch n := o.(type) {
	case types.Integer:
		return float64(n.Value())
	case types.Float:
		return n.Value()
	}
	return 0
}

func text(o types.Object) string {
	switch v := o.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return v.Value()
		}
		return s
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return v.Value()
		}
		return s
	case types.Name:
		return v.Value()
	}
	return ""
}
