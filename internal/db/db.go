package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"loanscan/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrUnavailable is returned by a store whose database could not be opened.
var ErrUnavailable = errors.New("record store unavailable")

// Open connects to the database named by dsn. A "sqlite:" or "file:" prefix
// selects sqlite; anything else is handed to the postgres driver.
func Open(dsn string, log *slog.Logger) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database url is empty")
	}
	if log == nil {
		log = slog.Default()
	}

	cfg := &gorm.Config{
		Logger: logger.New(
			slog.NewLogLogger(log.Handler(), slog.LevelWarn),
			logger.Config{SlowThreshold: time.Second, LogLevel: logger.Warn, IgnoreRecordNotFoundError: true},
		),
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "file:"):
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(dsn)
	}

	conn, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return conn, nil
}

// Migrate creates or updates the applications table.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db is nil")
	}
	if err := conn.AutoMigrate(&models.Application{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Store persists finalized applications. It only ever inserts.
type Store struct {
	db  *gorm.DB
	err error
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewStore returns a Store inserting through conn.
func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn, now: time.Now}
}

// Unavailable returns a store that fails every Save with ErrUnavailable,
// wrapping cause. It stands in when the database could not be reached at
// startup.
func Unavailable(cause error) *Store {
	return &Store{err: cause, now: time.Now}
}

// Save assigns the creation time and reference and inserts app. Creation
// times are kept at microsecond precision and strictly increase across the
// saves of one Store.
func (s *Store) Save(ctx context.Context, app *models.Application) error {
	if s.db == nil {
		if s.err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, s.err)
		}
		return ErrUnavailable
	}
	if app == nil {
		return errors.New("application is nil")
	}
	if app.ID != 0 {
		return fmt.Errorf("application %d already persisted", app.ID)
	}

	app.CreatedAt = s.stamp()
	if app.Reference == "" {
		app.Reference = uuid.NewString()
	}

	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// stamp returns the store clock truncated to microseconds, bumped past the
// previous stamp when the clock has not moved on.
func (s *Store) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}
