package postgres

import (
	"context"
	"fmt"

	"signage-service/internal/models"

	"gorm.io/gorm"
)

type PlaylistRepository struct {
	db *gorm.DB
}

func NewPlaylistRepository(db *gorm.DB) *PlaylistRepository {
	return &PlaylistRepository{db}
}

func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	return r.db.WithContext(ctx).Create(playlist).Error
}

func (r *PlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	return r.db.WithContext(ctx).Omit("Items").Save(playlist).Error
}

func (r *PlaylistRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&models.PlaylistItem{}).Error; err != nil {
			return fmt.Errorf("delete playlist items: %w", err)
		}
		res := tx.Delete(&models.Playlist{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PlaylistRepository) FindAll(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	err := r.db.WithContext(ctx).Order("id ASC").Find(&playlists).Error
	return playlists, err
}

// FindWithItems loads a playlist with its items ordered by position and each
// item's media resolved.
func (r *PlaylistRepository) FindWithItems(ctx context.Context, id uint) (*models.Playlist, error) {
	var playlist models.Playlist
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Items.Media").
		First(&playlist, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &playlist, nil
}

// ReplaceItems swaps the full item list of a playlist in one transaction.
// Positions are assigned from the slice order starting at 0.
func (r *PlaylistRepository) ReplaceItems(ctx context.Context, playlistID uint, items []models.PlaylistItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Playlist{}).Where("id = ?", playlistID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		if err := tx.Unscoped().Where("playlist_id = ?", playlistID).Delete(&models.PlaylistItem{}).Error; err != nil {
			return fmt.Errorf("clear playlist items: %w", err)
		}
		if len(items) == 0 {
			return tx.Model(&models.Playlist{}).Where("id = ?", playlistID).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
		}

		for i := range items {
			items[i].ID = 0
			items[i].PlaylistID = playlistID
			items[i].Position = i
		}
		if err := tx.Omit("Media").Create(&items).Error; err != nil {
			return fmt.Errorf("insert playlist items: %w", err)
		}
		return tx.Model(&models.Playlist{}).Where("id = ?", playlistID).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
}
