package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/observability"
)

// SchemaVersion is the layout of the values written by Repository. A
// store holding another version is wiped on open.
const SchemaVersion = 3

const schemaKey = "meta/schema"

// Collection names one kind of stored value.
type Collection string

const (
	Strokes    Collection = "strokes"
	Texts      Collection = "text"
	Shapes     Collection = "shapes"
	OCR        Collection = "ocr"
	Signatures Collection = "signatures"
	FormValues Collection = "formValues"
	Rotations  Collection = "rotations"
	Watermark  Collection = "watermark"
)

// Option configures a Repository.
type Option func(*Repository)

func WithLogger(l observability.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// Repository stores annotation collections per document and page.
// Keys are doc/<id>/page/<n>/<collection> for page collections and
// doc/<id>/<collection> for document collections.
type Repository struct {
	store  Store
	logger observability.Logger
}

// Open checks the schema version of s. On a mismatch every key is
// deleted and the current version written; the lost data is not
// recoverable.
func Open(ctx context.Context, s Store, opts ...Option) (*Repository, error) {
	r := &Repository{store: s, logger: observability.NopLogger{}}
	for _, o := range opts {
		o(r)
	}
	err := r.checkSchema(ctx)
	if errors.Is(err, ErrSchemaMismatch) {
		r.logger.Warn("store schema changed, recreating", observability.Error("error", err))
		if err := r.wipe(ctx); err != nil {
			return nil, err
		}
		err = r.writeSchema(ctx)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) checkSchema(ctx context.Context) error {
	v, err := r.store.Get(ctx, schemaKey)
	if errors.Is(err, ErrNotFound) {
		keys, err := r.store.List(ctx, "doc/")
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		if len(keys) > 0 {
			return fmt.Errorf("%w: unversioned data", ErrSchemaMismatch)
		}
		return r.writeSchema(ctx)
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if got, err := strconv.Atoi(string(v)); err != nil || got != SchemaVersion {
		return fmt.Errorf("%w: stored %q, want %d", ErrSchemaMismatch, v, SchemaVersion)
	}
	return nil
}

func (r *Repository) writeSchema(ctx context.Context) error {
	if err := r.store.Put(ctx, schemaKey, []byte(strconv.Itoa(SchemaVersion))); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

func (r *Repository) wipe(ctx context.Context) error {
	keys, err := r.store.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	for _, k := range keys {
		if err := r.store.Delete(ctx, k); err != nil {
			return fmt.Errorf("wipe: %w", err)
		}
	}
	return nil
}

func docPrefix(docID string) string { return "doc/" + docID + "/" }

func pageKey(docID string, page int, c Collection) string {
	return fmt.Sprintf("%spage/%d/%s", docPrefix(docID), page, c)
}

func docKey(docID string, c Collection) string { return docPrefix(docID) + string(c) }

func (r *Repository) put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.store.Put(ctx, key, b)
}

// get decodes the value at key into v and reports whether it existed.
func (r *Repository) get(ctx context.Context, key string, v any) (bool, error) {
	b, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SavePage stores v as the collection c of one page.
func (r *Repository) SavePage(ctx context.Context, docID string, page int, c Collection, v any) error {
	return r.put(ctx, pageKey(docID, page, c), v)
}

// LoadPage decodes the collection c of one page into v. It reports false
// when nothing is stored.
func (r *Repository) LoadPage(ctx context.Context, docID string, page int, c Collection, v any) (bool, error) {
	return r.get(ctx, pageKey(docID, page, c), v)
}

// DeletePage removes the collection c of one page.
func (r *Repository) DeletePage(ctx context.Context, docID string, page int, c Collection) error {
	return r.store.Delete(ctx, pageKey(docID, page, c))
}

func (r *Repository) SaveStrokes(ctx context.Context, docID string, page int, s []annotation.Stroke) error {
	return r.SavePage(ctx, docID, page, Strokes, s)
}

func (r *Repository) LoadStrokes(ctx context.Context, docID string, page int) ([]annotation.Stroke, error) {
	var out []annotation.Stroke
	_, err := r.LoadPage(ctx, docID, page, Strokes, &out)
	return out, err
}

func (r *Repository) SaveTexts(ctx context.Context, docID string, page int, t []annotation.TextAnnotation) error {
	return r.SavePage(ctx, docID, page, Texts, t)
}

func (r *Repository) LoadTexts(ctx context.Context, docID string, page int) ([]annotation.TextAnnotation, error) {
	var out []annotation.TextAnnotation
	_, err := r.LoadPage(ctx, docID, page, Texts, &out)
	return out, err
}

func (r *Repository) SaveShapes(ctx context.Context, docID string, page int, s []annotation.Shape) error {
	return r.SavePage(ctx, docID, page, Shapes, s)
}

func (r *Repository) LoadShapes(ctx context.Context, docID string, page int) ([]annotation.Shape, error) {
	var out []annotation.Shape
	_, err := r.LoadPage(ctx, docID, page, Shapes, &out)
	return out, err
}

func (r *Repository) SaveSignatures(ctx context.Context, docID string, s []annotation.Signature) error {
	return r.put(ctx, docKey(docID, Signatures), s)
}

func (r *Repository) LoadSignatures(ctx context.Context, docID string) ([]annotation.Signature, error) {
	var out []annotation.Signature
	_, err := r.get(ctx, docKey(docID, Signatures), &out)
	return out, err
}

func (r *Repository) SaveFormValues(ctx context.Context, docID string, v map[string]string) error {
	return r.put(ctx, docKey(docID, FormValues), v)
}

func (r *Repository) LoadFormValues(ctx context.Context, docID string) (map[string]string, error) {
	var out map[string]string
	_, err := r.get(ctx, docKey(docID, FormValues), &out)
	return out, err
}

func (r *Repository) SaveRotations(ctx context.Context, docID string, v annotation.Rotations) error {
	return r.put(ctx, docKey(docID, Rotations), v)
}

func (r *Repository) LoadRotations(ctx context.Context, docID string) (annotation.Rotations, error) {
	var out annotation.Rotations
	_, err := r.get(ctx, docKey(docID, Rotations), &out)
	return out, err
}

// SaveWatermark stores w; a nil w removes the watermark.
func (r *Repository) SaveWatermark(ctx context.Context, docID string, w *annotation.Watermark) error {
	if w == nil {
		return r.store.Delete(ctx, docKey(docID, Watermark))
	}
	return r.put(ctx, docKey(docID, Watermark), w)
}

// LoadWatermark returns nil when no watermark is stored.
func (r *Repository) LoadWatermark(ctx context.Context, docID string) (*annotation.Watermark, error) {
	var w annotation.Watermark
	ok, err := r.get(ctx, docKey(docID, Watermark), &w)
	if err != nil || !ok {
		return nil, err
	}
	return &w, nil
}

// LoadDocument gathers every stored collection of a document.
func (r *Repository) LoadDocument(ctx context.Context, docID string) (*annotation.Document, error) {
	keys, err := r.store.List(ctx, docPrefix(docID))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", docID, err)
	}
	doc := annotation.NewDocument(docID)
	for _, k := range keys {
		rest := strings.TrimPrefix(k, docPrefix(docID))
		page, c, ok := parsePageKey(rest)
		if !ok {
			continue
		}
		switch c {
		case Strokes:
			var v []annotation.Stroke
			if _, err := r.get(ctx, k, &v); err != nil {
				return nil, err
			}
			doc.Strokes[page] = v
		case Texts:
			var v []annotation.TextAnnotation
			if _, err := r.get(ctx, k, &v); err != nil {
				return nil, err
			}
			doc.Texts[page] = v
		case Shapes:
			var v []annotation.Shape
			if _, err := r.get(ctx, k, &v); err != nil {
				return nil, err
			}
			doc.Shapes[page] = v
		}
	}
	if doc.Signatures, err = r.LoadSignatures(ctx, docID); err != nil {
		return nil, err
	}
	if v, err := r.LoadFormValues(ctx, docID); err != nil {
		return nil, err
	} else if v != nil {
		doc.FormValues = v
	}
	if v, err := r.LoadRotations(ctx, docID); err != nil {
		return nil, err
	} else if v != nil {
		doc.Rotations = v
	}
	if doc.Watermark, err = r.LoadWatermark(ctx, docID); err != nil {
		return nil, err
	}
	return doc, nil
}

func parsePageKey(rest string) (int, Collection, bool) {
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] != "page" {
		return 0, "", false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", false
	}
	return n, Collection(parts[2]), true
}

// SaveDocument writes every collection of doc. Each key is written on
// its own; there is no cross-page transaction.
func (r *Repository) SaveDocument(ctx context.Context, doc *annotation.Document) error {
	for page, v := range doc.Strokes {
		if err := r.SaveStrokes(ctx, doc.ID, page, v); err != nil {
			return err
		}
	}
	for page, v := range doc.Texts {
		if err := r.SaveTexts(ctx, doc.ID, page, v); err != nil {
			return err
		}
	}
	for page, v := range doc.Shapes {
		if err := r.SaveShapes(ctx, doc.ID, page, v); err != nil {
			return err
		}
	}
	if doc.Signatures != nil {
		if err := r.SaveSignatures(ctx, doc.ID, doc.Signatures); err != nil {
			return err
		}
	}
	if doc.FormValues != nil {
		if err := r.SaveFormValues(ctx, doc.ID, doc.FormValues); err != nil {
			return err
		}
	}
	if doc.Rotations != nil {
		if err := r.SaveRotations(ctx, doc.ID, doc.Rotations); err != nil {
			return err
		}
	}
	return r.SaveWatermark(ctx, doc.ID, doc.Watermark)
}

// DeleteDocument removes every key of a document.
func (r *Repository) DeleteDocument(ctx context.Context, docID string) error {
	keys, err := r.store.List(ctx, docPrefix(docID))
	if err != nil {
		return fmt.Errorf("list %s: %w", docID, err)
	}
	for _, k := range keys {
		if err := r.store.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
