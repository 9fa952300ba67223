package security

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const fakeQPDF = `#!/bin/sh
printf '%s\n' "$@" > "$(dirname "$0")/args.txt"
eval "in=\${$(($# - 1))}"
eval "out=\${$#}"
cp "$in" "$out"
printf 'ENCRYPTED' >> "$out"
`

func fakeTool(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool is a shell script")
	}
	dir := t.TempDir()
	p := filepath.Join(dir, "qpdf")
	if err := os.WriteFile(p, []byte(fakeQPDF), 0o755); err != nil {
		t.Fatalf("write fake tool: %v", err)
	}
	return p
}

func TestPermissionsArgs(t *testing.T) {
	p := Permissions{Print: true, FillForms: true}
	want := []string{
		"--print=full", "--modify-other=n", "--extract=n", "--annotate=n",
		"--form=y", "--accessibility=n", "--assemble=n",
	}
	if diff := cmp.Diff(want, p.Args()); diff != "" {
		t.Fatalf("args (-want +got):\n%s", diff)
	}
	args := EncryptArgs(Request{Password: "u", Permissions: AllowAll()}, "in", "out")
	if diff := cmp.Diff([]string{"--encrypt", "u", "u", "256"}, args[:4]); diff != "" {
		t.Fatalf("prefix (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"--", "in", "out"}, args[len(args)-3:]); diff != "" {
		t.Fatalf("suffix (-want +got):\n%s", diff)
	}
}

func TestLocateTool(t *testing.T) {
	tool := fakeTool(t)
	if got, err := LocateTool(tool); err != nil || got != tool {
		t.Fatalf("override: %q, %v", got, err)
	}
	_, err := LocateTool(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrToolNotFound) || !strings.Contains(err.Error(), "PDFMARKUP_QPDF_PATH") {
		t.Fatalf("expected hint in ErrToolNotFound, got %v", err)
	}
	for _, goos := range []string{"linux", "darwin", "windows"} {
		if len(SearchPaths(goos)) == 0 || InstallHint(goos) == "" {
			t.Fatalf("no search paths for %s", goos)
		}
	}
}

func TestProtect(t *testing.T) {
	tool := fakeTool(t)
	p := Protector{Tool: tool, Limits: DefaultLimits()}
	in := []byte("%PDF-1.4 test")

	same, err := p.Protect(context.Background(), in, Request{})
	if err != nil || !bytes.Equal(same, in) {
		t.Fatalf("empty password should pass through: %q, %v", same, err)
	}
	out, err := p.Protect(context.Background(), in, Request{Password: "secret", Permissions: Permissions{Copy: true}})
	if err != nil {
		t.Fatalf("Protect: %v", err)
	}
	if string(out) != "%PDF-1.4 testENCRYPTED" {
		t.Fatalf("unexpected output %q", out)
	}
	args, err := os.ReadFile(filepath.Join(filepath.Dir(tool), "args.txt"))
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	if !strings.Contains(string(args), "--extract=y\n") || !strings.HasPrefix(string(args), "--encrypt\nsecret\nsecret\n256\n") {
		t.Fatalf("unexpected args:\n%s", args)
	}
}

func TestProtectToolFailure(t *testing.T) {
	dir := t.TempDir()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool is a shell script")
	}
	bad := filepath.Join(dir, "qpdf")
	if err := os.WriteFile(bad, []byte("#!/bin/sh\necho broken >&2\nexit 2\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Protector{Tool: bad}.Protect(context.Background(), []byte("%PDF-"), Request{Password: "x"})
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func upload(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile("file", "in.pdf")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write(file)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/protect", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProtectHandler(t *testing.T) {
	tool := fakeTool(t)
	h := NewProtectHandler(tool, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, map[string]string{"password": "pw", "print": "false"}, []byte("%PDF-1.7")))
	if rec.Code != http.StatusOK || rec.Body.String() != "%PDF-1.7ENCRYPTED" {
		t.Fatalf("status %d body %q", rec.Code, rec.Body.String())
	}
	args, _ := os.ReadFile(filepath.Join(filepath.Dir(tool), "args.txt"))
	if !strings.Contains(string(args), "--print=none\n") || !strings.Contains(string(args), "--form=y\n") {
		t.Fatalf("unexpected args:\n%s", args)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, nil, []byte("%PDF-1.7")))
	if rec.Code != http.StatusOK || rec.Body.String() != "%PDF-1.7" {
		t.Fatalf("no password: status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestProtectHandlerErrors(t *testing.T) {
	h := NewProtectHandler(filepath.Join(t.TempDir(), "missing"), nil)
	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"missing file", upload(t, map[string]string{"password": "x"}, nil), http.StatusBadRequest},
		{"not a pdf", upload(t, map[string]string{"password": "x"}, []byte("hello")), http.StatusBadRequest},
		{"tool missing", upload(t, map[string]string{"password": "x"}, []byte("%PDF-1.7")), http.StatusServiceUnavailable},
		{"wrong method", httptest.NewRequest(http.MethodGet, "/protect", nil), http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, tt.req)
		if rec.Code != tt.want {
			t.Fatalf("%s: status %d, want %d (%s)", tt.name, rec.Code, tt.want, rec.Body.String())
		}
	}
}
