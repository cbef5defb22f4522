package repo

import (
	"errors"
	"fmt"
	"strings"

	"soldera/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlitePrefix selects a local SQLite file instead of Postgres, for offline
// imports and development.
const sqlitePrefix = "sqlite:"

func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is empty")
	}

	dialector := postgres.Open(dsn)
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		if path == "" {
			return nil, fmt.Errorf("sqlite path is empty")
		}
		dialector = sqlite.Open(path)
	}

	db, err := Open(dialector)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}

// Open opens a gorm handle with driver errors translated, so unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	if dialector == nil {
		return nil, errors.New("dialector is nil")
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
}

func Migrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("db is nil")
	}

	if err := db.AutoMigrate(
		&models.AuctionBatch{},
		&models.AuctionLineItem{},
		&models.Task{},
		&models.Log{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}
