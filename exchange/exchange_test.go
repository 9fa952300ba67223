package exchange

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/pdfmarkup/annotation"
)

func TestExportImport(t *testing.T) {
	doc := annotation.NewDocument("doc_abc")
	doc.Strokes[1] = []annotation.Stroke{{
		Tool:   annotation.ToolPen,
		Color:  "#ff0000",
		Width:  2,
		Points: []annotation.StrokePoint{{X: 0, Y: 0}, {X: 1, Y: 1}},
	}}
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	data := FromDocument(doc, 3, now)

	var buf bytes.Buffer
	if err := Export(&buf, data); err != nil {
		t.Fatalf("Export: %v", err)
	}
	for _, key := range []string{`"version": "1.0"`, `"docId": "doc_abc"`, `"exportedAt": "2024-03-04T05:06:07Z"`, `"tool": "pen"`} {
		if !strings.Contains(buf.String(), key) {
			t.Fatalf("export lacks %s:\n%s", key, buf.String())
		}
	}
	got, err := Import(&buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if diff := cmp.Diff(data, got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	if got.Document().Strokes[1][0].Tool != annotation.ToolPen {
		t.Fatalf("document conversion lost strokes")
	}
}

func TestImportValidation(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing annotations", `{"docId":"x","totalPages":2}`},
		{"missing docId", `{"annotations":{},"totalPages":2}`},
		{"string totalPages", `{"docId":"x","annotations":{},"totalPages":"2"}`},
		{"null totalPages", `{"docId":"x","annotations":{},"totalPages":null}`},
		{"not an object", `[1,2]`},
	}
	for _, tt := range tests {
		if _, err := Import(strings.NewReader(tt.in)); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
	d, err := Import(strings.NewReader(`{"docId":"x","annotations":{},"totalPages":2,"extra":true}`))
	if err != nil {
		t.Fatalf("minimal import: %v", err)
	}
	if d.DocID != "x" || d.TotalPages != 2 || d.Annotations == nil {
		t.Fatalf("unexpected data %+v", d)
	}
}
