package contentstream

import (
	"bytes"
	"context"
	"math"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wudi/pdfmarkup/toc"
)

func TestParseOperands(t *testing.T) {
	src := []byte("% comment\nq 1 0 0 1 10 20 cm /F1 12 Tf (a\\(b\\)\\101) Tj <48 49> Tj [(x) -250 (y)] TJ Q")
	ops, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var names []string
	for _, op := range ops {
		names = append(names, op.Operator)
	}
	if diff := cmp.Diff([]string{"q", "cm", "Tf", "Tj", "Tj", "TJ", "Q"}, names); diff != "" {
		t.Fatalf("operators (-want +got):\n%s", diff)
	}
	if got := string(ops[3].Operands[0].Bytes); got != "a(b)A" {
		t.Fatalf("literal = %q", got)
	}
	if got := string(ops[4].Operands[0].Bytes); got != "HI" {
		t.Fatalf("hex = %q", got)
	}
	if ops[2].Operands[0].Name != "F1" || ops[2].Operands[1].Num != 12 {
		t.Fatalf("Tf operands = %+v", ops[2].Operands)
	}
	if n := len(ops[5].Operands[0].Items); n != 3 {
		t.Fatalf("TJ items = %d", n)
	}
}

func TestParseSkipsInlineImage(t *testing.T) {
	ops, err := Parse([]byte("BI /W 2 /H 1 /BPC 8 /CS /G ID \x00EI\xff EI Q"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ops) != 2 || ops[0].Operator != "BI" || ops[1].Operator != "Q" {
		t.Fatalf("ops = %+v", ops)
	}
}

func TestParseUnterminated(t *testing.T) {
	ops, err := Parse([]byte("BT (open Tj"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(ops) != 1 || ops[0].Operator != "BT" {
		t.Fatalf("ops before error = %+v", ops)
	}
}

func TestTextRuns(t *testing.T) {
	src := []byte(`BT /F1 24 Tf 1 0 0 1 72 700 Tm (Title) Tj ET
BT /F1 10 Tf 72 600 Td 12 TL (one) Tj T* [(two) -300 (three)] TJ ET
q 2 0 0 2 0 0 cm BT /F1 8 Tf 10 10 Td (scaled) Tj ET Q`)
	ops, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	runs := TextRuns(ops, 792, nil)
	if len(runs) != 4 {
		t.Fatalf("runs = %+v", runs)
	}
	want := []struct {
		text string
		x, y float64
		size float64
	}{
		{"Title", 72, 92, 24},
		{"one", 72, 192, 10},
		{"two three", 72, 204, 10},
		{"scaled", 20, 772, 16},
	}
	for i, w := range want {
		r := runs[i]
		if r.Text != w.text || !near(r.X, w.x) || !near(r.Y, w.y) || !near(r.EffectiveSize(), w.size) {
			t.Fatalf("run %d = %+v (size %v), want %+v", i, r, r.EffectiveSize(), w)
		}
	}
}

const identityCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
2 beginbfchar
<0001> <8ACB>
<0002> <6C42>
endbfchar
2 beginbfrange
<0010> <0012> <0041>
<0020> <0021> [<66F8> <0020>]
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

func TestParseCMap(t *testing.T) {
	f, err := ParseCMap([]byte(identityCMap), 1)
	if err != nil {
		t.Fatalf("ParseCMap: %v", err)
	}
	if f.CodeLen != 2 {
		t.Fatalf("code length = %d", f.CodeLen)
	}
	want := map[uint32]string{1: "請", 2: "求", 0x10: "A", 0x11: "B", 0x12: "C", 0x20: "書", 0x21: " "}
	if diff := cmp.Diff(want, f.ToUnicode); diff != "" {
		t.Fatalf("mapping (-want +got):\n%s", diff)
	}
	if got := f.Decode([]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x20, 0x99, 0x99, 0x00, 0x11}); got != "請求書B" {
		t.Fatalf("decode = %q", got)
	}
}

func TestTextRunsDecodeThroughFont(t *testing.T) {
	f, err := ParseCMap([]byte(identityCMap), 2)
	if err != nil {
		t.Fatalf("ParseCMap: %v", err)
	}
	ops, err := Parse([]byte("BT /F2 20 Tf 50 700 Td <000100020020> Tj /F1 10 Tf (plain) Tj ET"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	runs := TextRuns(ops, 800, map[string]*Font{"F2": f})
	if len(runs) != 2 || runs[0].Text != "請求書" || runs[1].Text != "plain" {
		t.Fatalf("runs = %+v", runs)
	}
	if !near(runs[0].Y, 100) || !near(runs[0].EffectiveSize(), 20) {
		t.Fatalf("heading run = %+v", runs[0])
	}
}

func TestDecodeUTF16(t *testing.T) {
	if got := decode([]byte{0xFE, 0xFF, 0x30, 0x42, 0x00, 0x0A}); got != "あ" {
		t.Fatalf("decode = %q", got)
	}
}

func TestPageRunsFeedsHeadingDetection(t *testing.T) {
	pdf := fpdf.New("P", "pt", "A4", "")
	for _, title := range []string{"Introduction", "Methods"} {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", 24)
		pdf.Text(72, 100, title)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(72, 140, "Body text for "+title)
		pdf.Text(300, 800, "7")
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("output: %v", err)
	}
	pages, err := PageRuns(context.Background(), buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("PageRuns: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d", len(pages))
	}
	if r := pages[0][0]; r.Text != "Introduction" || !near(r.Y, 100) || !near(r.X, 72) {
		t.Fatalf("first run = %+v", r)
	}
	want := []toc.Entry{{Title: "Introduction", Page: 1, Level: 1, Y: 100}, {Title: "Methods", Page: 2, Level: 1, Y: 100}}
	if diff := cmp.Diff(want, toc.DetectHeadings(pages), cmpopts.EquateApprox(0, 0.01)); diff != "" {
		t.Fatalf("headings (-want +got):\n%s", diff)
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }
