package models

import (
	"time"

	"gorm.io/gorm"
)

// Screen is a registered display device. DeviceKey is the opaque identity the
// player announces over the socket.
type Screen struct {
	gorm.Model
	Name       string     `gorm:"size:120;not null" json:"name"`
	Location   string     `gorm:"size:255" json:"location"`
	DeviceKey  string     `gorm:"uniqueIndex;size:64;not null" json:"deviceKey"`
	IsOnline   bool       `gorm:"not null;default:false" json:"isOnline"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	LastStatus string     `gorm:"type:text" json:"lastStatus,omitempty"` // raw JSON of the latest PLAYER_STATUS payload
}

/** -------------------- DTOs -------------------- */

type CreateScreenRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Location string `json:"location" binding:"max=255"`
}

type UpdateScreenRequest struct {
	Name     *string `json:"name,omitempty" binding:"omitempty,max=120"`
	Location *string `json:"location,omitempty" binding:"omitempty,max=255"`
}

type ScreenResponse struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Location   string     `json:"location"`
	DeviceKey  string     `json:"deviceKey"`
	IsOnline   bool       `json:"isOnline"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	LastStatus string     `json:"lastStatus,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (s *Screen) ToResponse() ScreenResponse {
	return ScreenResponse{
		ID:         s.ID,
		Name:       s.Name,
		Location:   s.Location,
		DeviceKey:  s.DeviceKey,
		IsOnline:   s.IsOnline,
		LastSeenAt: s.LastSeenAt,
		LastStatus: s.LastStatus,
		CreatedAt:  s.CreatedAt,
	}
}
