// Package document turns an uploaded document image into OCR text.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"loanscan/internal/cache"
	"loanscan/internal/imaging"
	"loanscan/internal/ocr"
)

// ErrProcessing wraps every failure to read, normalize or recognize an
// upload.
var ErrProcessing = errors.New("document processing failed")

// TextCache remembers recognized text between uploads of the same file.
type TextCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, text string) error
}

// Processor normalizes an image into ProcessedDir, runs OCR on the copy and
// removes it again.
type Processor struct {
	Engine       ocr.Engine
	ProcessedDir string
	Languages    []string
	Imaging      imaging.Options
	Cache        TextCache
	Logger       *slog.Logger
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Process returns the text recognized in the image at srcPath. Any failure
// is reported as ErrProcessing; no partial text is returned.
func (p *Processor) Process(ctx context.Context, srcPath string) (string, error) {
	log := p.logger().With("source", srcPath)

	key := p.cacheKey(srcPath)
	if key != "" {
		text, ok, err := p.Cache.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn("ocr cache lookup failed", "error", err)
		case ok:
			log.Debug("ocr cache hit")
			return text, nil
		}
	}

	start := time.Now()
	text, err := p.recognize(ctx, srcPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProcessing, err)
	}
	log.Info("document recognized", "engine", p.Engine.Name(), "chars", len(text), "duration", time.Since(start))

	if key != "" {
		if err := p.Cache.Set(ctx, key, text); err != nil {
			log.Warn("ocr cache store failed", "error", err)
		}
	}
	return text, nil
}

func (p *Processor) cacheKey(srcPath string) string {
	if p.Cache == nil {
		return ""
	}
	key, err := cache.Key(srcPath, p.Engine.Name(), p.Languages)
	if err != nil {
		return ""
	}
	return key
}

// recognize writes the normalized copy and always removes it before
// returning.
func (p *Processor) recognize(ctx context.Context, srcPath string) (string, error) {
	out, err := os.CreateTemp(p.ProcessedDir, "processed_*.png")
	if err != nil {
		return "", fmt.Errorf("create processed file: %w", err)
	}
	processed := out.Name()
	defer func() {
		if err := os.Remove(processed); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.logger().Warn("remove processed file", "path", processed, "error", err)
		}
	}()

	err = imaging.NormalizeFile(srcPath, out, p.Imaging)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close processed file: %w", cerr)
	}
	if err != nil {
		return "", err
	}

	text, err := p.Engine.Recognize(ctx, processed, p.Languages...)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return text, nil
}
