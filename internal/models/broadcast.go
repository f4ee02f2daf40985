package models

import (
	"time"

	"gorm.io/gorm"
)

// Broadcast status constants
const (
	BroadcastStatusPending      = "pending"
	BroadcastStatusBroadcasting = "broadcasting"
	BroadcastStatusFailed       = "failed"
)

// Broadcast records an attempt to push a playlist to a set of screens.
// Delivery is best effort; DeliveredCount is what the socket layer accepted.
type Broadcast struct {
	gorm.Model
	BroadcastID    string    `gorm:"uniqueIndex;size:36;not null" json:"broadcastId"`
	PlaylistID     uint      `gorm:"index;not null" json:"playlistId"`
	Playlist       Playlist  `json:"-"`
	Status         string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	TargetCount    int       `json:"targetCount"`
	DeliveredCount int       `json:"deliveredCount"`
	Screens        []*Screen `gorm:"many2many:broadcast_screens" json:"screens"`
}

/** -------------------- DTOs -------------------- */

type CreateBroadcastRequest struct {
	PlaylistID uint   `json:"playlistId" binding:"required"`
	ScreenIDs  []uint `json:"screenIds" binding:"required,min=1"`
}

type BroadcastResponse struct {
	ID             uint      `json:"id"`
	BroadcastID    string    `json:"broadcastId"`
	PlaylistID     uint      `json:"playlistId"`
	Status         string    `json:"status"`
	ScreenIDs      []uint    `json:"screenIds"`
	TargetCount    int       `json:"targetCount"`
	DeliveredCount int       `json:"deliveredCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (b *Broadcast) ToResponse() BroadcastResponse {
	ids := make([]uint, 0, len(b.Screens))
	for _, s := range b.Screens {
		ids = append(ids, s.ID)
	}
	return BroadcastResponse{
		ID:             b.ID,
		BroadcastID:    b.BroadcastID,
		PlaylistID:     b.PlaylistID,
		Status:         b.Status,
		ScreenIDs:      ids,
		TargetCount:    b.TargetCount,
		DeliveredCount: b.DeliveredCount,
		CreatedAt:      b.CreatedAt,
	}
}
