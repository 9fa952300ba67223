package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/wudi/pdfmarkup/annotation"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}
	for _, k := range []string{"doc/b/x", "doc/a/y", "doc/a/x", "other"} {
		if err := s.Put(ctx, k, []byte("v-"+k)); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}
	if err := s.Put(ctx, "doc/a/x", []byte("new")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err := s.Get(ctx, "doc/a/x")
	if err != nil || string(v) != "new" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	keys, err := s.List(ctx, "doc/a/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"doc/a/x", "doc/a/y"}, keys); diff != "" {
		t.Fatalf("List (-want +got):\n%s", diff)
	}
	if err := s.Delete(ctx, "doc/a/x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "doc/a/x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted key still present: %v", err)
	}
	if err := s.Delete(ctx, "never-there"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")
	_ = m.Put(ctx, "k", buf)
	buf[0] = 'x'
	got, _ := m.Get(ctx, "k")
	got[1] = 'y'
	again, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value aliased: %q", again)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
	if !mr.Exists("pdfmarkup:doc/a/y") {
		t.Fatalf("expected prefixed key in redis")
	}
}

func TestRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "://nope"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("PDFMARKUP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PDFMARKUP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, url)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()
	for _, k := range []string{"doc/a/x", "doc/a/y", "doc/b/x", "other", "missing"} {
		_ = s.Delete(ctx, k)
	}
	exerciseStore(t, s)
}

func sampleDocument() *annotation.Document {
	doc := annotation.NewDocument("doc_1")
	doc.Strokes[1] = []annotation.Stroke{{
		ID:     "s1",
		Tool:   annotation.ToolHighlight,
		Color:  "#ffff00",
		Width:  12,
		Points: []annotation.StrokePoint{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}},
	}}
	doc.Texts[2] = []annotation.TextAnnotation{{ID: "t1", Text: "確認済み", X: 0.5, Y: 0.5, FontSize: 14, Color: "#000000"}}
	doc.Shapes[3] = []annotation.Shape{{ID: "r1", Type: annotation.ShapeRectangle, X1: 0.1, Y1: 0.1, X2: 0.3, Y2: 0.3, Color: "#ff0000"}}
	doc.Signatures = []annotation.Signature{{ID: "sig", SignerName: "Sato", Position: annotation.SignaturePosition{PageNumber: 1, Width: 0.2, Height: 0.1}}}
	doc.FormValues["total"] = "3300"
	doc.Rotations[2] = 90
	doc.Watermark = &annotation.Watermark{Text: "DRAFT", Pattern: annotation.PatternGrid, Density: 3}
	return doc
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, NewMemory())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	doc := sampleDocument()
	if err := repo.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	got, err := repo.LoadDocument(ctx, "doc_1")
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Fatalf("document (-want +got):\n%s", diff)
	}

	strokes, err := repo.LoadStrokes(ctx, "doc_1", 9)
	if err != nil || strokes != nil {
		t.Fatalf("missing page: %v, %v", strokes, err)
	}
	if err := repo.DeleteDocument(ctx, "doc_1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	empty, err := repo.LoadDocument(ctx, "doc_1")
	if err != nil {
		t.Fatalf("LoadDocument after delete: %v", err)
	}
	if len(empty.Strokes) != 0 || empty.Watermark != nil || empty.Signatures != nil {
		t.Fatalf("document not deleted: %+v", empty)
	}
}

func TestRepositoryIsolatesDocuments(t *testing.T) {
	ctx := context.Background()
	repo, _ := Open(ctx, NewMemory())
	_ = repo.SaveStrokes(ctx, "doc_1", 1, []annotation.Stroke{{Tool: annotation.ToolPen}})
	_ = repo.SaveStrokes(ctx, "doc_10", 1, []annotation.Stroke{{Tool: annotation.ToolEraser}})
	if err := repo.DeleteDocument(ctx, "doc_1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	left, _ := repo.LoadStrokes(ctx, "doc_10", 1)
	if len(left) != 1 {
		t.Fatalf("sibling document affected: %v", left)
	}
}

func TestRepositoryWipesOnSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		schema string
	}{
		{"old version", "1"},
		{"unversioned", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory()
			_ = m.Put(ctx, "doc/x/page/1/strokes", []byte(`[]`))
			if tt.schema != "" {
				_ = m.Put(ctx, schemaKey, []byte(tt.schema))
			}
			if _, err := Open(ctx, m); err != nil {
				t.Fatalf("Open: %v", err)
			}
			keys, _ := m.List(ctx, "")
			if diff := cmp.Diff([]string{schemaKey}, keys); diff != "" {
				t.Fatalf("keys after wipe (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRepositoryKeepsCurrentSchema(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	repo, _ := Open(ctx, m)
	_ = repo.SaveFormValues(ctx, "doc_1", map[string]string{"a": "1"})
	if _, err := Open(ctx, m); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, _ := repo.LoadFormValues(ctx, "doc_1")
	if v["a"] != "1" {
		t.Fatalf("data lost on reopen: %v", v)
	}
}

func TestRedisRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()
	repo, err := Open(ctx, NewRedisStoreWithClient(client))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := repo.SaveDocument(ctx, sampleDocument()); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	got, err := repo.LoadDocument(ctx, "doc_1")
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if got.Rotations[2] != 90 || got.Watermark == nil || len(got.Shapes[3]) != 1 {
		t.Fatalf("unexpected document %+v", got)
	}
}
