package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"blogium/models"
)

// RecordUpload tracks a freshly stored post image so the cleaner can remove
// it if no post ever attaches it.
func (s *Store) RecordUpload(ctx context.Context, file *models.UploadedFile) error {
	return s.db.WithContext(ctx).Create(file).Error
}

// ExpiredUploads returns up to limit uploads whose grace period passed
// without being attached to a post.
func (s *Store) ExpiredUploads(ctx context.Context, limit int) ([]models.UploadedFile, error) {
	var items []models.UploadedFile
	err := s.db.WithContext(ctx).
		Where("expire_at <= ?", time.Now()).
		Limit(limit).
		Find(&items).Error
	return items, err
}

// DropUpload removes a single upload record.
func (s *Store) DropUpload(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.UploadedFile{}, id).Error
}

// releaseUpload clears the pending-upload record once a post references the
// image, so the cleaner never deletes an attached file.
func releaseUpload(tx *gorm.DB, imageURL string) error {
	if imageURL == "" {
		return nil
	}
	return tx.Where("url = ?", imageURL).Delete(&models.UploadedFile{}).Error
}
