package forms

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/google/go-cmp/cmp"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

type staticSource struct {
	widgets []Widget
	err     error
}

func (s staticSource) Widgets(context.Context) ([]Widget, error) { return s.widgets, s.err }

func TestExtractAssignsPages(t *testing.T) {
	sizes := []pdfdoc.Size{{Width: 100, Height: 100}, {Width: 200, Height: 300}}
	src := staticSource{widgets: []Widget{
		{Name: "a", Type: annotation.FieldText, Rect: annotation.Rect{Y: 50}},
		{Name: "b", Type: annotation.FieldText, Rect: annotation.Rect{Y: 250}},
		{Name: "c", Type: annotation.FieldCheckbox, Rect: annotation.Rect{Y: 1000}},
		{Name: "d", Type: annotation.FieldDropdown, Rect: annotation.Rect{Y: 50}, Page: 2, Options: []string{"x", "y"}},
	}}
	got, err := Extract(context.Background(), src, sizes)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	var pages []int
	for _, f := range got {
		pages = append(pages, f.PageNumber)
	}
	if diff := cmp.Diff([]int{1, 2, 1, 2}, pages); diff != "" {
		t.Fatalf("pages (-want +got):\n%s", diff)
	}
	if got[3].ID != "field-4" || len(got[3].Options) != 2 {
		t.Fatalf("unexpected field %+v", got[3])
	}
}

func TestExtractUniformPagesPicksFirst(t *testing.T) {
	sizes := []pdfdoc.Size{{Width: 612, Height: 792}, {Width: 612, Height: 792}}
	if p := AssignPage(400, sizes); p != 1 {
		t.Fatalf("page = %d, want 1", p)
	}
}

func TestExtractErrors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := Extract(context.Background(), staticSource{err: boom}, nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	bad := staticSource{widgets: []Widget{{Name: "x", Type: "slider"}}}
	if _, err := Extract(context.Background(), bad, nil); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestPDFSourceWithoutForm(t *testing.T) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("output: %v", err)
	}
	widgets, err := PDFSource{Data: buf.Bytes()}.Widgets(context.Background())
	if err != nil {
		t.Fatalf("Widgets: %v", err)
	}
	if len(widgets) != 0 {
		t.Fatalf("expected no widgets, got %d", len(widgets))
	}
}

func TestFieldType(t *testing.T) {
	tests := []struct {
		ft    string
		flags int
		want  annotation.FieldType
		ok    bool
	}{
		{"Tx", 0, annotation.FieldText, true},
		{"Ch", 0, annotation.FieldDropdown, true},
		{"Btn", 0, annotation.FieldCheckbox, true},
		{"Btn", flagRadio, annotation.FieldRadio, true},
		{"Btn", flagPushButton, annotation.FieldButton, true},
		{"Sig", 0, "", false},
	}
	for _, tt := range tests {
		got, ok := fieldType(tt.ft, tt.flags)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("fieldType(%q, %d) = %q, %v", tt.ft, tt.flags, got, ok)
		}
	}
}

func calcField(name, script string) annotation.FormField {
	return annotation.FormField{Name: name, Type: annotation.FieldText, CalculationScript: script}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"sum", "sum(a, b)", "7"},
		{"multiply literal", "multiply(a, 0.5)", "1.5"},
		{"subtract", "subtract(b, a)", "1"},
		{"divide", "divide(b, 2)", "2"},
		{"divide by zero", "divide(a, zero)", "0"},
		{"bare arithmetic", "a * 2 + b", "10"},
		{"rejected script", "alert(a)", "0"},
		{"syntax error", "a +* b", "0"},
	}
	values := map[string]string{"a": "3", "b": "4", "zero": "0"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := []annotation.FormField{
				{Name: "a"}, {Name: "b"}, {Name: "zero"},
				calcField("out", tt.script),
			}
			got, err := Calculate(context.Background(), fields, values)
			if err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			if got["out"] != tt.want {
				t.Fatalf("out = %q, want %q", got["out"], tt.want)
			}
		})
	}
	if _, ok := values["out"]; ok {
		t.Fatalf("input values were modified")
	}
}

func TestCalculateSettlesChains(t *testing.T) {
	fields := SetupCommonCalculations([]annotation.FormField{
		{Name: "合計"},
		{Name: "消費税"},
		{Name: "小計"},
		{Name: "金額1"},
		{Name: "金額2"},
	})
	want := map[string]string{
		"合計":  "add(小計, 消費税)",
		"消費税": "multiply(小計, 0.1)",
		"小計":  "sum(金額1, 金額2)",
		"金額1": "",
		"金額2": "",
	}
	for _, f := range fields {
		if f.CalculationScript != want[f.Name] {
			t.Fatalf("%s script = %q, want %q", f.Name, f.CalculationScript, want[f.Name])
		}
	}
	got, err := Calculate(context.Background(), fields, map[string]string{"金額1": "1,000", "金額2": "2000"})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if got["小計"] != "3000" || got["消費税"] != "300" || got["合計"] != "3300" {
		t.Fatalf("unexpected totals %v", got)
	}
}

func TestSetupCommonCalculationsKeepsScripts(t *testing.T) {
	fields := SetupCommonCalculations([]annotation.FormField{
		{Name: "Subtotal"},
		{Name: "Total", CalculationScript: "sum(Subtotal, 5)"},
		{Name: "Amount A"},
	})
	if fields[0].CalculationScript != "sum(Amount A)" {
		t.Fatalf("subtotal script = %q", fields[0].CalculationScript)
	}
	if fields[1].CalculationScript != "sum(Subtotal, 5)" {
		t.Fatalf("existing script overwritten: %q", fields[1].CalculationScript)
	}
}

func TestCalculateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Calculate(ctx, []annotation.FormField{calcField("x", "1+1")}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
