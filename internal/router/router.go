package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"loanscan/internal/handlers"
	"loanscan/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RegisterRouter mounts the pages and health check on a chi router.
func RegisterRouter(h *handlers.Handler, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimw.Recoverer)

	r.Get("/", h.Index)
	r.Post("/upload", h.Upload)
	r.Post("/submit", h.Submit)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	return r
}
