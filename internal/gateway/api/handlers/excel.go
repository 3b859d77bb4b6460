package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/marmos91/ipagw/internal/bytesize"
	"github.com/marmos91/ipagw/pkg/sheet"
)

// readWorkbook parses the multipart "file" field as a workbook.
func (h *UserHandler) readWorkbook(w http.ResponseWriter, r *http.Request) (*sheet.Workbook, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestEntityTooLarge(w, fmt.Sprintf("Upload exceeds %s", bytesize.ByteSize(h.maxUploadSize)))
			return nil, false
		}
		BadRequest(w, "Invalid multipart body")
		return nil, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("file")
	if err != nil {
		BadRequest(w, "A workbook must be uploaded in the 'file' field")
		return nil, false
	}
	defer func() { _ = file.Close() }()

	wb, err := sheet.ReadWorkbook(file)
	if err != nil {
		BadRequest(w, fmt.Sprintf("Invalid workbook: %v", err))
		return nil, false
	}
	return wb, true
}

// ValidateExcel handles POST /api/v1/users/validate-excel.
// Reports what a bulk create would do without changing the directory.
func (h *UserHandler) ValidateExcel(w http.ResponseWriter, r *http.Request) {
	dir, ok := sessionDirectory(w, r)
	if !ok {
		return
	}
	wb, ok := h.readWorkbook(w, r)
	if !ok {
		return
	}

	report, err := h.engine.ValidateWorkbook(r.Context(), dir, wb)
	if err != nil {
		writeError(w, r, "Workbook validation failed", err)
		return
	}
	WriteJSONOK(w, report)
}

// CreateFromExcel handles POST /api/v1/users/bulk-create-from-excel.
// Responds 503 without touching the directory when secret links cannot be
// published.
func (h *UserHandler) CreateFromExcel(w http.ResponseWriter, r *http.Request) {
	dir, ok := sessionDirectory(w, r)
	if !ok {
		return
	}
	wb, ok := h.readWorkbook(w, r)
	if !ok {
		return
	}

	report, err := h.engine.CreateFromWorkbook(r.Context(), dir, wb)
	if err != nil {
		writeError(w, r, "Bulk create failed", err)
		return
	}
	WriteJSONOK(w, report)
}
