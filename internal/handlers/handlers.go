package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"loanscan/internal/extract"
	"loanscan/internal/models"
	"loanscan/internal/views"
)

// DefaultMaxUploadBytes bounds the multipart body of an upload.
const DefaultMaxUploadBytes = 10 << 20

// DocumentProcessor turns an uploaded image into recognized text.
type DocumentProcessor interface {
	Process(ctx context.Context, path string) (string, error)
}

// RecordStore persists a finalized application.
type RecordStore interface {
	Save(ctx context.Context, app *models.Application) error
}

// Options wires a Handler. Processor, Store, Views and UploadDir are
// required.
type Options struct {
	Processor      DocumentProcessor
	Extractor      *extract.Extractor
	Assistant      extract.Assistant
	Store          RecordStore
	Views          *views.Renderer
	UploadDir      string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Handler serves the upload, review and submit pages.
type Handler struct {
	processor      DocumentProcessor
	extractor      *extract.Extractor
	assistant      extract.Assistant
	store          RecordStore
	views          *views.Renderer
	uploadDir      string
	maxUploadBytes int64
	log            *slog.Logger
	now            func() time.Time
}

// New builds a Handler from opts, filling in defaults for the optional fields.
func New(opts Options) (*Handler, error) {
	if opts.Processor == nil {
		return nil, errors.New("document processor is nil")
	}
	if opts.Store == nil {
		return nil, errors.New("record store is nil")
	}
	if opts.Views == nil {
		return nil, errors.New("views are nil")
	}
	if opts.UploadDir == "" {
		return nil, errors.New("upload dir is empty")
	}

	h := &Handler{
		processor:      opts.Processor,
		extractor:      opts.Extractor,
		assistant:      opts.Assistant,
		store:          opts.Store,
		views:          opts.Views,
		uploadDir:      opts.UploadDir,
		maxUploadBytes: opts.MaxUploadBytes,
		log:            opts.Logger,
		now:            time.Now,
	}
	if h.extractor == nil {
		h.extractor = extract.New()
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = DefaultMaxUploadBytes
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	return h, nil
}

// Index renders the upload form.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.Index, nil)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if err := h.views.Render(w, status, page, data); err != nil {
		h.log.ErrorContext(r.Context(), "render page", "page", page, "error", err)
		http.Error(w, "Something went wrong.", http.StatusInternalServerError)
	}
}
