package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/wudi/pdfmarkup/observability"
)

// ProtectHandler serves POST multipart requests carrying a "file" part,
// a "password" field and optional permission fields named after the
// Permissions JSON keys. Omitted permissions are granted.
type ProtectHandler struct {
	// Locate finds the tool per request so a tool installed after start
	// is picked up.
	Locate func() (string, error)
	Limits Limits
	Logger observability.Logger
}

func NewProtectHandler(override string, logger observability.Logger) *ProtectHandler {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &ProtectHandler{
		Locate: func() (string, error) { return LocateTool(override) },
		Limits: DefaultLimits(),
		Logger: logger,
	}
}

func (h *ProtectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.Limits.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file", "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	pdf, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_file", err.Error())
		return
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		writeError(w, http.StatusBadRequest, "invalid_file", "upload is not a PDF")
		return
	}

	req := Request{
		Password:      r.FormValue("password"),
		OwnerPassword: r.FormValue("ownerPassword"),
		Permissions:   permissionsFromForm(r),
	}
	var out []byte
	if req.Password == "" {
		out = pdf
	} else {
		tool, err := h.Locate()
		if err != nil {
			h.Logger.Error("encryption tool unavailable", observability.Error("error", err))
			writeError(w, http.StatusServiceUnavailable, "tool_not_found", err.Error())
			return
		}
		out, err = Protector{Tool: tool, Limits: h.Limits}.Protect(r.Context(), pdf, req)
		if err != nil {
			h.Logger.Error("protect failed",
				observability.String("file", header.Filename),
				observability.Error("error", err),
			)
			status := http.StatusInternalServerError
			if errors.Is(err, ErrToolNotFound) {
				status = http.StatusServiceUnavailable
			}
			writeError(w, status, "protect_failed", err.Error())
			return
		}
	}
	h.Logger.Info("pdf protected",
		observability.String("file", header.Filename),
		observability.Bool("encrypted", req.Password != ""),
		observability.Int("bytes", len(out)),
	)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func permissionsFromForm(r *http.Request) Permissions {
	flag := func(name string) bool {
		v := r.FormValue(name)
		if v == "" {
			return true
		}
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return Permissions{
		Print:             flag("print"),
		Modify:            flag("modify"),
		Copy:              flag("copy"),
		ModifyAnnotations: flag("annotate"),
		FillForms:         flag("fillForms"),
		ExtractAccessible: flag("accessibility"),
		Assemble:          flag("assemble"),
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "error": message})
}
