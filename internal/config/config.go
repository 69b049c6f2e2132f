package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalid is returned when an environment variable holds a malformed value.
var ErrInvalid = errors.New("invalid configuration")

const (
	DefaultPort         = "3000"
	DefaultUploadDir    = "uploads"
	DefaultProcessedDir = "processed"
	DefaultMaxUploadMB  = 10
	DefaultOCRProvider  = "tesseract"
	DefaultOCRLanguage  = "eng"
	DefaultGeminiModel  = "gemini-2.0-flash-lite"
	DefaultCacheTTL     = 24 * time.Hour
)

// Config holds the service settings read from the environment.
type Config struct {
	Port         string
	DatabaseURL  string
	UploadDir    string
	ProcessedDir string
	MaxUploadMB  int64

	OCRProvider     string
	OCRLanguage     string
	OCRMaxDimension int
	CredentialsFile string

	GeminiAPIKey string
	GeminiModel  string

	RedisURL string
	CacheTTL time.Duration

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:            get("PORT", DefaultPort),
		DatabaseURL:     get("DATABASE_URL", get("MONGO_URI", "")),
		UploadDir:       get("UPLOAD_DIR", DefaultUploadDir),
		ProcessedDir:    get("PROCESSED_DIR", DefaultProcessedDir),
		OCRProvider:     strings.ToLower(get("OCR_PROVIDER", DefaultOCRProvider)),
		OCRLanguage:     get("OCR_LANGUAGE", DefaultOCRLanguage),
		CredentialsFile: get("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GeminiAPIKey:    get("GEMINI_API_KEY", ""),
		GeminiModel:     get("GEMINI_MODEL", DefaultGeminiModel),
		RedisURL:        get("REDIS_URL", ""),
		LogFormat:       strings.ToLower(get("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.MaxUploadMB, err = strconv.ParseInt(get("MAX_UPLOAD_MB", strconv.Itoa(DefaultMaxUploadMB)), 10, 64); err != nil || cfg.MaxUploadMB <= 0 {
		return Config{}, fmt.Errorf("%w: MAX_UPLOAD_MB must be a positive integer", ErrInvalid)
	}
	if cfg.OCRMaxDimension, err = strconv.Atoi(get("OCR_MAX_DIMENSION", "0")); err != nil || cfg.OCRMaxDimension < 0 {
		return Config{}, fmt.Errorf("%w: OCR_MAX_DIMENSION must be a non-negative integer", ErrInvalid)
	}
	if cfg.CacheTTL, err = time.ParseDuration(get("OCR_CACHE_TTL", DefaultCacheTTL.String())); err != nil {
		return Config{}, fmt.Errorf("%w: OCR_CACHE_TTL: %v", ErrInvalid, err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("%w: LOG_LEVEL: %v", ErrInvalid, err)
	}

	switch cfg.OCRProvider {
	case "tesseract", "vision":
	default:
		return Config{}, fmt.Errorf("%w: unknown OCR_PROVIDER %q", ErrInvalid, cfg.OCRProvider)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("%w: unknown LOG_FORMAT %q", ErrInvalid, cfg.LogFormat)
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// NewLogger builds the process logger described by the config.
func (c Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
