package credential

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Setting is a single named value in the settings table
type Setting struct {
	Name      string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// SQLStore keeps the token in a SQLite settings table so it survives restarts.
type SQLStore struct {
	notifier
	db *gorm.DB
}

// OpenSQLStore opens (or creates) the SQLite database at path and migrates the settings table.
func OpenSQLStore(path string) (*SQLStore, error) {
	gormLogger := logger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential database: %w", err)
	}

	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate settings table: %w", err)
	}

	slog.Debug("Credential store ready", "path", path)
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context) (string, bool, error) {
	var setting Setting
	err := s.db.WithContext(ctx).First(&setting, "name = ?", SlotKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read credential: %w", err)
	}
	return setting.Value, setting.Value != "", nil
}

func (s *SQLStore) Set(ctx context.Context, token string) error {
	token, err := normalize(token)
	if err != nil {
		return err
	}

	setting := Setting{Name: SlotKey, Value: token}
	if err := s.db.WithContext(ctx).Save(&setting).Error; err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	s.notify(true)
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Delete(&Setting{}, "name = ?", SlotKey).Error; err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}

	s.notify(false)
	return nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
