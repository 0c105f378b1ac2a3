package migrations

import (
	"gorm.io/gorm"
)

// Migration001Initial creates the images table. Uploads are written by an
// external path; this service only ever reads pending rows and fills in the
// diagnosis column.
type Migration001Initial struct{}

func (m *Migration001Initial) Version() string {
	return "001_initial"
}

func (m *Migration001Initial) Description() string {
	return "Create images table"
}

func (m *Migration001Initial) Up(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS images (
			id VARCHAR(255) PRIMARY KEY,
			storage_path VARCHAR(1024),
			title VARCHAR(1024),
			diagnosis TEXT,
			metadata JSON,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error; err != nil {
		return err
	}

	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_images_diagnosis ON images(diagnosis)`).Error
}

func (m *Migration001Initial) Down(db *gorm.DB) error {
	return db.Exec(`DROP TABLE IF EXISTS images`).Error
}
