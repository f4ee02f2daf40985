package models

import (
	"time"

	"gorm.io/gorm"
)

type Playlist struct {
	gorm.Model
	Name        string         `gorm:"size:120;not null" json:"name"`
	Description string         `gorm:"size:1024" json:"description"`
	Items       []PlaylistItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// PlaylistItem places a media asset at a position in a playlist
type PlaylistItem struct {
	gorm.Model
	PlaylistID      uint  `gorm:"index;not null" json:"playlistId"`
	MediaID         uint  `gorm:"index;not null" json:"mediaId"`
	Media           Media `json:"media"`
	Position        int   `gorm:"not null" json:"position"`
	DurationSeconds int   `gorm:"not null;default:10" json:"durationSeconds"`
}

/** -------------------- DTOs -------------------- */

type CreatePlaylistRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"max=1024"`
}

type UpdatePlaylistRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,max=120"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=1024"`
}

type PlaylistItemInput struct {
	MediaID         uint `json:"mediaId" binding:"required"`
	DurationSeconds int  `json:"durationSeconds" binding:"omitempty,min=1,max=86400"`
}

type SetPlaylistItemsRequest struct {
	Items []PlaylistItemInput `json:"items" binding:"dive"`
}

type SuggestPlaylistRequest struct {
	Prompt   string `json:"prompt" binding:"required,max=1000"`
	MaxItems int    `json:"maxItems" binding:"omitempty,min=1,max=100"`
}

type PlaylistItemResponse struct {
	ID              uint          `json:"id"`
	Position        int           `json:"position"`
	DurationSeconds int           `json:"durationSeconds"`
	Media           MediaResponse `json:"media"`
}

// PlaylistResponse is the playlist with its ordered items and resolved media.
// It is also the snapshot pushed to screens in LOAD_PLAYLIST.
type PlaylistResponse struct {
	ID          uint                   `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Items       []PlaylistItemResponse `json:"items"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

type PlaylistSuggestion struct {
	Name  string              `json:"name"`
	Items []PlaylistItemInput `json:"items"`
}

func (p *Playlist) ToResponse() PlaylistResponse {
	items := make([]PlaylistItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, PlaylistItemResponse{
			ID:              it.ID,
			Position:        it.Position,
			DurationSeconds: it.DurationSeconds,
			Media:           it.Media.ToResponse(),
		})
	}
	return PlaylistResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Items:       items,
		UpdatedAt:   p.UpdatedAt,
	}
}
