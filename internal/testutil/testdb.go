package testutil

import (
	"asset-registry-api/internal/database"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewInMemoryDB creates an in-memory SQLite DB and runs migrations.
// The pool is pinned to one connection: every new :memory: connection
// would otherwise see its own empty database.
func NewInMemoryDB() (*gorm.DB, error) {
	db, err := database.Open(":memory:", logger.Silent)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
