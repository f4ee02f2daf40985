package postgres

import (
	"context"
	"time"

	"signage-service/internal/models"

	"gorm.io/gorm"
)

type ScreenRepository struct {
	db *gorm.DB
}

func NewScreenRepository(db *gorm.DB) *ScreenRepository {
	return &ScreenRepository{db}
}

func (r *ScreenRepository) Create(ctx context.Context, screen *models.Screen) error {
	return r.db.WithContext(ctx).Create(screen).Error
}

// UpdateDetails writes the console-owned columns only. Presence columns are
// owned by the hub and left untouched.
func (r *ScreenRepository) UpdateDetails(ctx context.Context, id uint, name, location string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"name":     name,
		"location": location,
	})
}

func (r *ScreenRepository) UpdateDeviceKey(ctx context.Context, id uint, deviceKey string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"device_key": deviceKey,
		"is_online":  false,
	})
}

func (r *ScreenRepository) updateColumns(ctx context.Context, id uint, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Screen{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ScreenRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Screen{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ScreenRepository) FindAll(ctx context.Context) ([]models.Screen, error) {
	var screens []models.Screen
	err := r.db.WithContext(ctx).Order("id ASC").Find(&screens).Error
	return screens, err
}

func (r *ScreenRepository) FindOnline(ctx context.Context) ([]models.Screen, error) {
	var screens []models.Screen
	err := r.db.WithContext(ctx).Where("is_online = ?", true).Order("id ASC").Find(&screens).Error
	return screens, err
}

func (r *ScreenRepository) FindByID(ctx context.Context, id uint) (*models.Screen, error) {
	var screen models.Screen
	if err := r.db.WithContext(ctx).First(&screen, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &screen, nil
}

// FindByIDs returns the screens that exist among ids; missing ids are omitted.
func (r *ScreenRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Screen, error) {
	var screens []models.Screen
	if len(ids) == 0 {
		return screens, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&screens).Error
	return screens, err
}

func (r *ScreenRepository) FindByDeviceKey(ctx context.Context, deviceKey string) (*models.Screen, error) {
	var screen models.Screen
	if err := r.db.WithContext(ctx).Where("device_key = ?", deviceKey).First(&screen).Error; err != nil {
		return nil, notFound(err)
	}
	return &screen, nil
}

// UpdateOnlineStatus flips is_online for the screen owning deviceKey and
// stamps last_seen_at. Returns ErrNotFound when no screen has that key.
func (r *ScreenRepository) UpdateOnlineStatus(ctx context.Context, deviceKey string, online bool, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Screen{}).
		Where("device_key = ?", deviceKey).
		Updates(map[string]interface{}{
			"is_online":    online,
			"last_seen_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ScreenRepository) UpdateLastStatus(ctx context.Context, deviceKey string, status string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Screen{}).
		Where("device_key = ?", deviceKey).
		Updates(map[string]interface{}{
			"last_status":  status,
			"last_seen_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetOnlineStatus marks every screen offline. Run at startup since the
// in-process registry starts empty.
func (r *ScreenRepository) ResetOnlineStatus(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Screen{}).
		Where("is_online = ?", true).
		Update("is_online", false)
	return res.RowsAffected, res.Error
}
