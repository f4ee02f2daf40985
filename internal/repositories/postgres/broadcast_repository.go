package postgres

import (
	"context"

	"signage-service/internal/models"

	"gorm.io/gorm"
)

type BroadcastRepository struct {
	db *gorm.DB
}

func NewBroadcastRepository(db *gorm.DB) *BroadcastRepository {
	return &BroadcastRepository{db}
}

// Create persists the broadcast and its screen associations.
func (r *BroadcastRepository) Create(ctx context.Context, b *models.Broadcast) error {
	return r.db.WithContext(ctx).Omit("Playlist", "Screens.*").Create(b).Error
}

func (r *BroadcastRepository) FindByID(ctx context.Context, id uint) (*models.Broadcast, error) {
	var b models.Broadcast
	if err := r.db.WithContext(ctx).Preload("Screens").First(&b, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *BroadcastRepository) FindRecent(ctx context.Context, limit int) ([]models.Broadcast, error) {
	var out []models.Broadcast
	q := r.db.WithContext(ctx).Preload("Screens").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
