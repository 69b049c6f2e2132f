package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loanscan/internal/cache"
	"loanscan/internal/config"
	"loanscan/internal/db"
	"loanscan/internal/document"
	"loanscan/internal/extract"
	googlevision "loanscan/internal/google-vision"
	"loanscan/internal/handlers"
	"loanscan/internal/imaging"
	"loanscan/internal/ocr"
	"loanscan/internal/ocr/tesseract"
	"loanscan/internal/router"
	"loanscan/internal/views"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := cfg.NewLogger()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, dir := range []string{cfg.UploadDir, cfg.ProcessedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		log.Info("folder ready", "path", dir)
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := engine.(io.Closer); ok {
		closers = append(closers, c)
	}

	processor := &document.Processor{
		Engine:       engine,
		ProcessedDir: cfg.ProcessedDir,
		Languages:    []string{cfg.OCRLanguage},
		Imaging:      imaging.Options{MaxDimension: cfg.OCRMaxDimension},
		Logger:       log,
	}
	if cfg.RedisURL != "" {
		textCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Warn("ocr cache disabled", "error", err)
		} else {
			processor.Cache = textCache
			closers = append(closers, textCache)
			log.Info("ocr cache enabled", "ttl", cfg.CacheTTL)
		}
	}

	var assistant extract.Assistant
	if cfg.GeminiAPIKey != "" {
		gemini, err := extract.NewGeminiAssistant(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warn("extraction assistant disabled", "error", err)
		} else {
			assistant = gemini
			closers = append(closers, gemini)
			log.Info("extraction assistant enabled", "model", cfg.GeminiModel)
		}
	}

	renderer, err := views.New()
	if err != nil {
		return err
	}

	h, err := handlers.New(handlers.Options{
		Processor:      processor,
		Assistant:      assistant,
		Store:          openStore(cfg, log),
		Views:          renderer,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		Logger:         log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.RegisterRouter(h, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", "url", "http://localhost:"+cfg.Port, "ocr", engine.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newEngine(ctx context.Context, cfg config.Config) (ocr.Engine, error) {
	if cfg.OCRProvider == "vision" {
		return googlevision.NewEngine(ctx, cfg.CredentialsFile)
	}
	return tesseract.NewEngine(), nil
}

// openStore connects the record store. A database that cannot be reached is
// logged once; the server still starts and every save fails.
func openStore(cfg config.Config, log *slog.Logger) handlers.RecordStore {
	conn, err := db.Open(cfg.DatabaseURL, log)
	if err == nil {
		err = db.Migrate(conn)
	}
	if err != nil {
		log.Error("database connection error", "error", err)
		return db.Unavailable(err)
	}
	log.Info("connected to database")
	return db.NewStore(conn)
}
