package models

import (
	"time"

	"gorm.io/gorm"
)

// Media is an uploaded asset stored in object storage
type Media struct {
	gorm.Model
	Name        string   `gorm:"size:255;not null" json:"name"`
	ObjectKey   string   `gorm:"uniqueIndex;size:255;not null" json:"objectKey"`
	URL         string   `gorm:"size:1024;not null" json:"url"`
	ContentType string   `gorm:"size:100" json:"contentType"`
	Size        int64    `json:"size"`
	Tags        []string `gorm:"serializer:json;type:text" json:"tags"`
}

/** -------------------- DTOs -------------------- */

type MediaResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (m *Media) ToResponse() MediaResponse {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return MediaResponse{
		ID:          m.ID,
		Name:        m.Name,
		URL:         m.URL,
		ContentType: m.ContentType,
		Size:        m.Size,
		Tags:        tags,
		CreatedAt:   m.CreatedAt,
	}
}
