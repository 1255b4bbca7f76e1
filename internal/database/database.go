package database

import (
	"fmt"
	"log/slog"

	"asset-registry-api/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the SQLite file at path (created if missing) and runs migrations.
// glebarez/sqlite is a pure Go driver, so no CGO is required.
func InitDB(path string) error {
	db, err := Open(path, logger.Warn)
	if err != nil {
		return err
	}
	DB = db
	slog.Info("database connected and migrated", "path", path)
	return nil
}

// Open connects to path and migrates the schema without touching DB.
func Open(path string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.RegistryEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// GetDB returns the database connection
func GetDB() *gorm.DB {
	return DB
}
