package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKey(t *testing.T) {
	a, err := Key("doc_1", []byte("%PDF-1.7 a"))
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	b, _ := Key("doc_1", []byte("%PDF-1.7 a"))
	c, _ := Key("doc_1", []byte("%PDF-1.7 b"))
	if a != b || a == c {
		t.Fatalf("keys not content addressed: %s %s %s", a, b, c)
	}
	if !strings.HasPrefix(a, "doc_1/") || !strings.HasSuffix(a, ".pdf") || len(a) != len("doc_1/")+64+len(".pdf") {
		t.Fatalf("unexpected key %s", a)
	}
	for _, bad := range []string{"", "..", "a/b", `a\b`} {
		if _, err := Key(bad, nil); err == nil {
			t.Fatalf("expected error for id %q", bad)
		}
	}
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	path, err := FileSink{Dir: dir}.Put(context.Background(), "doc_1", []byte("%PDF-1.7"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "%PDF-1.7" {
		t.Fatalf("stored %q, %v", got, err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "doc_1") {
		t.Fatalf("unexpected path %s", path)
	}
}

func TestMinioSink(t *testing.T) {
	endpoint := os.Getenv("PDFMARKUP_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("PDFMARKUP_TEST_MINIO_ENDPOINT not set")
	}
	ctx := context.Background()
	sink, err := NewMinioSink(ctx, MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:    "pdfmarkup-test",
	})
	if err != nil {
		t.Fatalf("NewMinioSink: %v", err)
	}
	loc, err := sink.Put(ctx, "doc_1", []byte("%PDF-1.7"))
	if err != nil || !strings.HasPrefix(loc, "minio://pdfmarkup-test/doc_1/") {
		t.Fatalf("Put = %s, %v", loc, err)
	}
	if _, err := NewMinioSink(ctx, MinioConfig{}); err == nil {
		t.Fatalf("expected config error")
	}
}
