package fonts_test

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/go-text/typesetting/language"

	"github.com/wudi/pdfmarkup/fonts"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

func TestDetectScript(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect language.Script
	}{
		{"Latin", "Hello World", language.Latin},
		{"Cyrillic", "Привет мир", language.Cyrillic},
		{"Mixed Latin dominant", "Hello World مرحبا", language.Latin},
		{"Han", "你好世界", language.Han},
		{"Hiragana", "こんにちは", language.Hiragana},
		{"Katakana", "コンニチハ", language.Katakana},
		{"Empty", "", language.Latin},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := fonts.DetectScript([]rune(tc.input)); got != tc.expect {
				t.Errorf("expected %v, got %v", tc.expect, got)
			}
		})
	}
}

func TestIsCJK(t *testing.T) {
	for _, r := range "日本語かなカナ。、（" {
		if !fonts.IsCJK(r) {
			t.Fatalf("IsCJK(%q) = false", r)
		}
	}
	for _, r := range "abc 1é" {
		if fonts.IsCJK(r) {
			t.Fatalf("IsCJK(%q) = true", r)
		}
	}
}

func TestCoverage(t *testing.T) {
	if !fonts.Covers("Hello, World! ~") {
		t.Fatalf("printable ASCII should be covered")
	}
	if fonts.Covers("café") || fonts.Covers("tab\there") || fonts.Covers("日本") {
		t.Fatalf("non-printable or non-ASCII should not be covered")
	}
	if got := fonts.ASCIIOnly("A日B\nC"); got != "ABC" {
		t.Fatalf("ASCIIOnly = %q", got)
	}
}

func TestHelveticaWidth(t *testing.T) {
	h := fonts.NewHelvetica()
	// Helvetica advances: space 278, "i" 222, "W" 944 per 1000 em.
	if got := h.Width("W", 10); math.Abs(got-9.44) > 1e-6 {
		t.Fatalf("W width = %v", got)
	}
	if got := h.Width("i i", 100); math.Abs(got-72.2) > 1e-6 {
		t.Fatalf("'i i' width = %v", got)
	}
	if got := h.Width("日本", 12); got != 0 {
		t.Fatalf("unsupported glyphs should measure 0, got %v", got)
	}
}

func TestRasterizerRender(t *testing.T) {
	r, err := fonts.NewRasterizer(nil, 2)
	if err != nil {
		t.Fatalf("new rasterizer: %v", err)
	}
	defer r.Close()
	bm, err := r.Render("Hello", 12, color.Black)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if bm.Width <= 0 || bm.Height <= 0 {
		t.Fatalf("bad extent %+v", bm)
	}
	if got := bm.Image.Bounds().Dx(); float64(got) != bm.Width*2 {
		t.Fatalf("image width %d does not match scale", got)
	}
	if _, err := r.Render("", 12, color.Black); err == nil {
		t.Fatalf("expected error for empty text")
	}
	if w := r.Measure("Hello", 12); w <= 0 || w > bm.Width+1 {
		t.Fatalf("measure = %v, bitmap width %v", w, bm.Width)
	}
}

func TestSelectorPicksPathByCoverage(t *testing.T) {
	r, err := fonts.NewRasterizer(nil, 1)
	if err != nil {
		t.Fatalf("new rasterizer: %v", err)
	}
	s := fonts.NewSelector(r)
	p := pdfdoc.NewPage(200, 200)
	if err := s.Draw(p, "ASCII", 10, 10, 12, color.RGBA{A: 255}, 1); err != nil {
		t.Fatalf("draw ascii: %v", err)
	}
	if err := s.Draw(p, "café", 10, 30, 12, color.RGBA{A: 255}, 1); err != nil {
		t.Fatalf("draw unicode: %v", err)
	}
	if _, ok := p.Ops[0].(pdfdoc.Text); !ok {
		t.Fatalf("ascii should use native text, got %T", p.Ops[0])
	}
	if _, ok := p.Ops[1].(pdfdoc.Image); !ok {
		t.Fatalf("unicode should use raster image, got %T", p.Ops[1])
	}
}

func TestSelectorWithoutRasterDropsGlyphs(t *testing.T) {
	s := fonts.NewSelector(nil)
	p := pdfdoc.NewPage(200, 200)
	if err := s.Draw(p, "A日B", 0, 0, 12, color.RGBA{}, 1); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if txt := p.Ops[0].(pdfdoc.Text); txt.Text != "AB" {
		t.Fatalf("text = %q", txt.Text)
	}
	if err := s.Draw(p, "日本", 0, 0, 12, color.RGBA{}, 1); err == nil {
		t.Fatalf("expected error when nothing is drawable")
	}
}

func TestRasterizerReportsMissingGlyphs(t *testing.T) {
	r, err := fonts.NewRasterizer(nil, 1)
	if err != nil {
		t.Fatalf("new rasterizer: %v", err)
	}
	if !r.Covers("café crème") {
		t.Fatalf("bundled font should cover Latin-1, missing %q", string(r.Missing("café crème")))
	}
	if got := string(r.Missing("A請 求書\n")); got != "請求書" {
		t.Fatalf("missing = %q", got)
	}
	if r.HasCJK() {
		t.Fatalf("bundled font reported CJK coverage")
	}
	if _, err := r.Render("請求書", 12, color.Black); !errors.Is(err, fonts.ErrMissingGlyphs) {
		t.Fatalf("render err = %v, want ErrMissingGlyphs", err)
	}

	s := fonts.NewSelector(r)
	if s.Supports("請求書") {
		t.Fatalf("selector claims support for uncovered text")
	}
	if !s.Supports("café") || !s.Supports("plain") {
		t.Fatalf("selector should support covered text")
	}
	p := pdfdoc.NewPage(200, 200)
	if err := s.Draw(p, "請求書", 0, 0, 12, color.RGBA{A: 255}, 1); !errors.Is(err, fonts.ErrMissingGlyphs) {
		t.Fatalf("draw err = %v, want ErrMissingGlyphs", err)
	}
	if len(p.Ops) != 0 {
		t.Fatalf("ops = %d, want none", len(p.Ops))
	}
}

func TestRasterizerCloseReleasesFaces(t *testing.T) {
	r, err := fonts.NewRasterizer(nil, 1)
	if err != nil {
		t.Fatalf("new rasterizer: %v", err)
	}
	for _, size := range []float64{10, 12} {
		if _, err := r.Render("x", size, color.Black); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := r.Render("x", 10, color.Black); err != nil {
		t.Fatalf("render after close: %v", err)
	}
}
