package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"plant-diagnosis-server/internal/platform/errors"
	"plant-diagnosis-server/internal/platform/logging"
)

// ImageRepository reads pending image records and persists diagnoses.
type ImageRepository struct {
	db     *gorm.DB
	logger *logging.Logger
}

func NewImageRepository(db *gorm.DB, logger *logging.Logger) *ImageRepository {
	return &ImageRepository{db: db, logger: logger}
}

// PendingImages returns every record whose diagnosis is still unset, in
// primary key order.
func (r *ImageRepository) PendingImages(ctx context.Context) ([]ImageRecord, error) {
	var records []ImageRecord
	err := r.db.WithContext(ctx).
		Where("diagnosis IS NULL").
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindPersistence, "images.pending", "query pending images", err)
	}
	return records, nil
}

// UpdateDiagnosis writes the diagnosis text and a fresh UTC timestamp to the
// record with the given id. Zero rows affected is a failure: the caller must
// not assume the record changed state.
func (r *ImageRepository) UpdateDiagnosis(ctx context.Context, id, diagnosis string) error {
	result := r.db.WithContext(ctx).
		Model(&ImageRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"diagnosis":  diagnosis,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		r.logger.ErrorTag("STORE", "update diagnosis for %s failed: %v", id, result.Error)
		return errors.Wrap(errors.KindPersistence, "images.update", "update diagnosis", result.Error)
	}
	if result.RowsAffected == 0 {
		r.logger.ErrorTag("STORE", "update diagnosis for %s affected no rows", id)
		return errors.New(errors.KindPersistence, "images.update", "no rows affected")
	}

	r.logger.InfoTag("STORE", "updated diagnosis for image %s", id)
	return nil
}
