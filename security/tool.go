// Package security password-protects PDFs with the qpdf command-line
// tool.
package security

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrToolNotFound is returned when no qpdf executable can be located.
var ErrToolNotFound = errors.New("security: qpdf not found")

// SearchPaths lists the locations searched for qpdf on goos.
func SearchPaths(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\qpdf\bin\qpdf.exe`,
			`C:\Program Files (x86)\qpdf\bin\qpdf.exe`,
			`C:\qpdf\bin\qpdf.exe`,
		}
	case "darwin":
		return []string{"/opt/homebrew/bin/qpdf", "/usr/local/bin/qpdf", "/opt/local/bin/qpdf"}
	default:
		return []string{"/usr/bin/qpdf", "/usr/local/bin/qpdf", "/snap/bin/qpdf"}
	}
}

// InstallHint tells the operator how to install qpdf on goos.
func InstallHint(goos string) string {
	switch goos {
	case "windows":
		return "install qpdf from https://github.com/qpdf/qpdf/releases or set PDFMARKUP_QPDF_PATH"
	case "darwin":
		return "run `brew install qpdf` or set PDFMARKUP_QPDF_PATH"
	default:
		return "install the qpdf package (e.g. `apt-get install qpdf`) or set PDFMARKUP_QPDF_PATH"
	}
}

// LocateTool returns the qpdf executable. A non-empty override must point
// at an existing file; otherwise PATH and the platform search paths are
// searched in that order.
func LocateTool(override string) (string, error) {
	return locate(override, runtime.GOOS)
}

func locate(override, goos string) (string, error) {
	if override != "" {
		if isFile(override) {
			return override, nil
		}
		return "", fmt.Errorf("%w: %s does not exist; %s", ErrToolNotFound, override, InstallHint(goos))
	}
	if p, err := exec.LookPath("qpdf"); err == nil {
		return p, nil
	}
	paths := SearchPaths(goos)
	for _, p := range paths {
		if isFile(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: searched PATH and %s; %s", ErrToolNotFound, strings.Join(paths, ", "), InstallHint(goos))
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
