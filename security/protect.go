package security

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Permissions are the rights kept by a reader who opens the document
// with the user password.
type Permissions struct {
	Print             bool `json:"print"`
	Modify            bool `json:"modify"`
	Copy              bool `json:"copy"`
	ModifyAnnotations bool `json:"annotate"`
	FillForms         bool `json:"fillForms"`
	ExtractAccessible bool `json:"accessibility"`
	Assemble          bool `json:"assemble"`
}

// AllowAll grants every permission.
func AllowAll() Permissions {
	return Permissions{true, true, true, true, true, true, true}
}

func yn(b bool) string {
	if b {
		return "y"
	}
	return "n"
}

// Args returns the qpdf restriction flags for 256-bit AES.
func (p Permissions) Args() []string {
	printMode := "none"
	if p.Print {
		printMode = "full"
	}
	return []string{
		"--print=" + printMode,
		"--modify-other=" + yn(p.Modify),
		"--extract=" + yn(p.Copy),
		"--annotate=" + yn(p.ModifyAnnotations),
		"--form=" + yn(p.FillForms),
		"--accessibility=" + yn(p.ExtractAccessible),
		"--assemble=" + yn(p.Assemble),
	}
}

// Request describes one protection run.
type Request struct {
	Password string
	// OwnerPassword defaults to Password.
	OwnerPassword string
	Permissions   Permissions
}

// EncryptArgs builds the full qpdf argument list.
func EncryptArgs(req Request, in, out string) []string {
	owner := req.OwnerPassword
	if owner == "" {
		owner = req.Password
	}
	args := []string{"--encrypt", req.Password, owner, "256"}
	args = append(args, req.Permissions.Args()...)
	return append(args, "--", in, out)
}

// Protector runs qpdf.
type Protector struct {
	Tool   string
	Limits Limits
}

// Protect encrypts pdf. An empty password returns pdf unchanged.
func (p Protector) Protect(ctx context.Context, pdf []byte, req Request) ([]byte, error) {
	if req.Password == "" {
		return pdf, nil
	}
	if p.Tool == "" {
		return nil, fmt.Errorf("%w: no tool configured", ErrToolNotFound)
	}
	if p.Limits.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Limits.ToolTimeout)
		defer cancel()
	}
	dir, err := os.MkdirTemp("", "pdfmarkup-protect-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Tool, EncryptArgs(req, in, out)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		// qpdf exits 3 when it succeeded with warnings.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
			return nil, fmt.Errorf("qpdf failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return data, nil
}
