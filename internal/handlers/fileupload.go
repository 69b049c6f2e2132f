package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"loanscan/internal/extract"
	"loanscan/internal/models"
	"loanscan/internal/validate"
	"loanscan/internal/views"
)

// uploadField is the multipart field carrying the document image.
const uploadField = "loanDocument"

// reviewPage is the data behind the result view.
type reviewPage struct {
	Data        models.ExtractedFields
	Suggestions []extract.Suggestion
	Errors      []validate.FieldError
}

// Upload stores the document, runs OCR and field extraction and renders the
// review page.
// POST /upload (multipart/form-data, file field "loanDocument")
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, "failed to parse form or file too large", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		http.Error(w, "missing file field 'loanDocument'", http.StatusBadRequest)
		return
	}
	defer file.Close()

	path, err := h.saveUpload(file, header)
	if err != nil {
		h.log.ErrorContext(ctx, "store upload", "filename", header.Filename, "error", err)
		http.Error(w, "Something went wrong.", http.StatusInternalServerError)
		return
	}
	h.log.InfoContext(ctx, "document uploaded", "path", path, "size", header.Size)

	text, err := h.processor.Process(ctx, path)
	if err != nil {
		h.log.ErrorContext(ctx, "OCR error", "path", path, "error", err)
		http.Error(w, "Something went wrong.", http.StatusInternalServerError)
		return
	}

	res := h.extractor.Extract(text)
	if h.assistant != nil {
		if err := extract.Complete(ctx, h.assistant, &res); err != nil {
			h.log.WarnContext(ctx, "extraction assistant failed", "error", err)
		}
	}
	if missing := res.Missing(); len(missing) > 0 {
		h.log.InfoContext(ctx, "fields not found in document", "fields", missing)
	}

	h.render(w, r, http.StatusOK, views.Result, reviewPage{
		Data:        res.ExtractedFields,
		Suggestions: res.Suggestions,
	})
}

// saveUpload copies the uploaded file into the upload dir under a name
// derived from the upload time. The original is kept after processing.
func (h *Handler) saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	pattern := fmt.Sprintf("%d-*%s", h.now().UnixMilli(), uploadExt(header.Filename))
	dst, err := os.CreateTemp(h.uploadDir, pattern)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return dst.Name(), nil
}

// uploadExt returns the lowercased extension of the client filename, or ""
// when it is missing or contains anything but letters and digits.
func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
