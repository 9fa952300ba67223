package contentstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdfmarkup/observability"
	"github.com/wudi/pdfmarkup/toc"
)

// PageRuns extracts the text runs of every page of a PDF. A page whose
// content cannot be parsed contributes the runs read before the error.
func PageRuns(ctx context.Context, data []byte, logger observability.Logger) ([][]toc.TextRun, error) {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	pctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	catalog, err := pctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	r := &reader{ctx: pctx, cache: make(map[int]*Font)}
	root, ok := r.dict(catalog["Pages"])
	if !ok {
		return nil, errors.New("read catalog: missing page tree")
	}
	var out [][]toc.TextRun
	err = r.walk(root, inheritable{}, 0, func(page types.Dict, attrs inheritable) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := len(out) + 1
		ops, perr := Parse(r.content(page["Contents"]))
		if perr != nil {
			logger.Warn("content stream truncated",
				observability.Int("page", n),
				observability.Error("error", perr),
			)
		}
		out = append(out, TextRuns(ops, r.top(attrs.box), r.fonts(attrs.resources, n, logger)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type reader struct {
	ctx   *model.Context
	cache map[int]*Font
}

// inheritable holds the page attributes a Pages node passes to its kids.
type inheritable struct {
	box       types.Array
	resources types.Dict
}

func (r *reader) deref(o types.Object) types.Object {
	if o == nil {
		return nil
	}
	v, err := r.ctx.Dereference(o)
	if err != nil {
		return nil
	}
	return v
}

func (r *reader) dict(o types.Object) (types.Dict, bool) {
	d, ok := r.deref(o).(types.Dict)
	return d, ok
}

// walk visits leaf pages in order, passing the inherited MediaBox and
// Resources.
func (r *reader) walk(node types.Dict, attrs inheritable, depth int, visit func(types.Dict, inheritable) error) error {
	if depth > 64 {
		return nil
	}
	attrs = r.inherit(node, attrs)
	kids, _ := r.deref(node["Kids"]).(types.Array)
	for _, k := range kids {
		d, ok := r.dict(k)
		if !ok {
			continue
		}
		if t, _ := d["Type"].(types.Name); t == "Pages" {
			if err := r.walk(d, attrs, depth+1, visit); err != nil {
				return err
			}
			continue
		}
		if err := visit(d, r.inherit(d, attrs)); err != nil {
			return err
		}
	}
	return nil
}

func (r *reader) inherit(node types.Dict, attrs inheritable) inheritable {
	if b, ok := r.deref(node["MediaBox"]).(types.Array); ok {
		attrs.box = b
	}
	if res, ok := r.dict(node["Resources"]); ok {
		attrs.resources = res
	}
	return attrs
}

// fonts builds decoders for the fonts of a page's resources. Fonts without
// a usable ToUnicode CMap are left out and decode as single bytes.
func (r *reader) fonts(resources types.Dict, page int, logger observability.Logger) map[string]*Font {
	fontDict, ok := r.dict(resources["Font"])
	if !ok {
		return nil
	}
	out := make(map[string]*Font, len(fontDict))
	for name, ref := range fontDict {
		num, indirect := objectNumber(ref)
		if f, ok := r.cache[num]; indirect && ok {
			if f != nil {
				out[name] = f
			}
			continue
		}
		f, err := r.font(ref)
		if err != nil {
			logger.Warn("font cmap unreadable",
				observability.Int("page", page),
				observability.String("font", name),
				observability.Error("error", err),
			)
		}
		if indirect {
			r.cache[num] = f
		}
		if f != nil {
			out[name] = f
		}
	}
	return out
}

func (r *reader) font(ref types.Object) (*Font, error) {
	d, ok := r.dict(ref)
	if !ok {
		return nil, nil
	}
	sd, ok := r.deref(d["ToUnicode"]).(types.StreamDict)
	if !ok {
		return nil, nil
	}
	codeLen := 1
	if t, _ := d["Subtype"].(types.Name); t == "Type0" {
		codeLen = 2
	}
	f, err := ParseCMap(decodeStream(sd), codeLen)
	if len(f.ToUnicode) == 0 {
		return nil, err
	}
	return f, err
}

func objectNumber(o types.Object) (int, bool) {
	switch v := o.(type) {
	case types.IndirectRef:
		return v.ObjectNumber.Value(), true
	case *types.IndirectRef:
		return v.ObjectNumber.Value(), true
	}
	return 0, false
}

// top returns the upper edge of a MediaBox, defaulting to US Letter.
func (r *reader) top(box types.Array) float64 {
	if len(box) != 4 {
		return 792
	}
	y1, y2 := number(r.deref(box[1])), number(r.deref(box[3]))
	return max(y1, y2)
}

// content concatenates the decoded streams of a Contents entry.
func (r *reader) content(o types.Object) []byte {
	switch v := r.deref(o).(type) {
	case types.StreamDict:
		return decodeStream(v)
	case types.Array:
		var buf bytes.Buffer
		for _, item := range v {
			if sd, ok := r.deref(item).(types.StreamDict); ok {
				buf.Write(decodeStream(sd))
				buf.WriteByte('\n')
			}
		}
		return buf.Bytes()
	}
	return nil
}

func decodeStream(sd types.StreamDict) []byte {
	if err := sd.Decode(); err != nil {
		return nil
	}
	return sd.Content
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
