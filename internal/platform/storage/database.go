package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"plant-diagnosis-server/internal/platform/storage/migrations"
)

// ImageRecord is a row in the images table. The upload path creates rows
// with a null diagnosis; this service fills diagnosis and updated_at.
type ImageRecord struct {
	ID          string         `gorm:"type:varchar(255);primaryKey"        json:"id"`
	StoragePath string         `gorm:"type:varchar(1024)"                  json:"storage_path"`
	Title       string         `gorm:"type:varchar(1024)"                  json:"title"`
	Diagnosis   *string        `gorm:"type:text"                           json:"diagnosis,omitempty"`
	Metadata    datatypes.JSON `                                           json:"metadata,omitempty"`
	CreatedAt   time.Time      `                                           json:"created_at"`
	UpdatedAt   time.Time      `                                           json:"updated_at"`
}

func (ImageRecord) TableName() string {
	return "images"
}

// Open initialises the SQLite database at path and applies migrations.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	manager := NewMigrationManager(db)
	manager.AddMigration(&migrations.Migration001Initial{})

	if err := manager.RunMigrations(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}
