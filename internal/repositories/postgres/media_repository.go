package postgres

import (
	"context"

	"signage-service/internal/models"

	"gorm.io/gorm"
)

type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db}
}

func (r *MediaRepository) Create(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *MediaRepository) FindAll(ctx context.Context) ([]models.Media, error) {
	var media []models.Media
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&media).Error
	return media, err
}

func (r *MediaRepository) FindByID(ctx context.Context, id uint) (*models.Media, error) {
	var media models.Media
	if err := r.db.WithContext(ctx).First(&media, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &media, nil
}

func (r *MediaRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Media, error) {
	var media []models.Media
	if len(ids) == 0 {
		return media, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&media).Error
	return media, err
}

func (r *MediaRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Media{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
