package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/config"
	"github.com/wudi/pdfmarkup/exchange"
	"github.com/wudi/pdfmarkup/observability"
	"github.com/wudi/pdfmarkup/pdfdoc"
)

func testEnv() *env {
	return &env{
		cfg:    config.Config{Store: "memory", RasterScale: 1},
		logger: observability.NopLogger{},
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func pageCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	n, err := pdfdoc.PageCount(context.Background(), data)
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	return n
}

func TestImagesThenSplit(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	writePNG(t, a, 40, 30)
	writePNG(t, b, 30, 40)
	merged := filepath.Join(dir, "merged.pdf")
	ctx := context.Background()

	if err := runImages(ctx, testEnv(), []string{"-out", merged, a, b}); err != nil {
		t.Fatalf("images: %v", err)
	}
	if n := pageCount(t, merged); n != 2 {
		t.Fatalf("merged pages = %d", n)
	}

	second := filepath.Join(dir, "second.pdf")
	if err := runSplit(ctx, testEnv(), []string{"-in", merged, "-out", second, "-from", "2", "-to", "2"}); err != nil {
		t.Fatalf("split: %v", err)
	}
	if n := pageCount(t, second); n != 1 {
		t.Fatalf("split pages = %d", n)
	}

	bad := filepath.Join(dir, "bad.pdf")
	if err := runSplit(ctx, testEnv(), []string{"-in", merged, "-out", bad, "-from", "2", "-to", "5"}); err == nil {
		t.Fatalf("expected range error")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Fatalf("partial output left behind: %v", err)
	}
}

func TestBakeFromExport(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "page.png")
	writePNG(t, img, 200, 200)
	src := filepath.Join(dir, "src.pdf")
	ctx := context.Background()
	if err := runImages(ctx, testEnv(), []string{"-out", src, img}); err != nil {
		t.Fatalf("images: %v", err)
	}

	doc := annotation.NewDocument("doc_test")
	doc.Strokes[1] = []annotation.Stroke{{
		Tool:   annotation.ToolPen,
		Color:  "#0000ff",
		Width:  2,
		Points: []annotation.StrokePoint{{X: 0.1, Y: 0.1}, {X: 0.9, Y: 0.9}},
	}}
	doc.Texts[1] = []annotation.TextAnnotation{{X: 0.2, Y: 0.2, Text: "Checked", FontSize: 12, Color: "#000000"}}
	export := filepath.Join(dir, "export.json")
	f, err := os.Create(export)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := exchange.Export(f, exchange.FromDocument(doc, 1, time.Unix(0, 0))); err != nil {
		t.Fatalf("export: %v", err)
	}
	f.Close()

	out := filepath.Join(dir, "out.pdf")
	if err := runBake(ctx, testEnv(), []string{"-in", src, "-annotations", export, "-out", out, "-forms=false"}); err != nil {
		t.Fatalf("bake: %v", err)
	}
	if n := pageCount(t, out); n != 1 {
		t.Fatalf("baked pages = %d", n)
	}
}

func TestBakeRequiresSource(t *testing.T) {
	if err := runBake(context.Background(), testEnv(), []string{"-doc", "doc_x"}); err == nil {
		t.Fatalf("expected error without -in")
	}
}

func TestTextRunsFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.json")
	raw := `[[{"text":"Overview","x":10,"y":20,"fontSize":18,"transform":[0,0,0,0,0,0]}],[]]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	pages, err := textRuns(context.Background(), testEnv(), nil, path)
	if err != nil {
		t.Fatalf("textRuns: %v", err)
	}
	if len(pages) != 2 || len(pages[0]) != 1 || pages[0][0].Text != "Overview" {
		t.Fatalf("pages = %+v", pages)
	}
}
