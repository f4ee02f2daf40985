package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"signage-service/internal/adapters/kafka"
	"signage-service/internal/models"
	"signage-service/internal/repositories/postgres"

	"github.com/google/uuid"
)

type MediaRepository interface {
	Create(ctx context.Context, media *models.Media) error
	FindAll(ctx context.Context) ([]models.Media, error)
	FindByID(ctx context.Context, id uint) (*models.Media, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Media, error)
	Delete(ctx context.Context, id uint) error
}

// ObjectStorage is implemented by storage.MinIOClient.
type ObjectStorage interface {
	Upload(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectKey string) error
}

type Tagger interface {
	TagMedia(ctx context.Context, name, contentType string) ([]string, error)
}

// UploadInput describes a file received from the console.
type UploadInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MediaService struct {
	repo    MediaRepository
	storage ObjectStorage
	tagger  Tagger
	events  kafka.Publisher
}

func NewMediaService(repo MediaRepository, storage ObjectStorage, tagger Tagger, events kafka.Publisher) *MediaService {
	if events == nil {
		events = kafka.NoopPublisher{}
	}
	return &MediaService{repo: repo, storage: storage, tagger: tagger, events: events}
}

func isSupportedContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/")
}

func objectKeyFor(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "/" {
		base = "asset"
	}
	return fmt.Sprintf("media/%s/%s", uuid.NewString(), base)
}

func (s *MediaService) Upload(ctx context.Context, in UploadInput) (*models.MediaResponse, error) {
	if in.Name == "" || in.Body == nil {
		return nil, ErrInvalidRequest
	}
	if !isSupportedContentType(in.ContentType) {
		return nil, ErrUnsupportedMedia
	}

	objectKey := objectKeyFor(in.Name)
	url, err := s.storage.Upload(ctx, objectKey, in.Body, in.Size, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store media: %w", err)
	}

	var tags []string
	if s.tagger != nil {
		tags, err = s.tagger.TagMedia(ctx, in.Name, in.ContentType)
		if err != nil {
			slog.Warn("Media tagging failed", "name", in.Name, "error", err)
		}
	}

	media := models.Media{
		Name:        in.Name,
		ObjectKey:   objectKey,
		URL:         url,
		ContentType: in.ContentType,
		Size:        in.Size,
		Tags:        tags,
	}
	if err := s.repo.Create(ctx, &media); err != nil {
		if rmErr := s.storage.Remove(ctx, objectKey); rmErr != nil {
			slog.Error("Failed to remove orphaned object", "objectKey", objectKey, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save media: %w", err)
	}

	slog.Info("Media uploaded", "mediaID", media.ID, "objectKey", objectKey, "tags", tags)
	if ev, err := kafka.NewEvent(kafka.EventMediaUploaded, objectKey, media.ToResponse()); err == nil {
		if err := s.events.Publish(ctx, ev); err != nil {
			slog.Warn("Failed to publish event", "type", ev.Type, "error", err)
		}
	}

	resp := media.ToResponse()
	return &resp, nil
}

func (s *MediaService) ListMedia(ctx context.Context) ([]models.MediaResponse, error) {
	media, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	out := make([]models.MediaResponse, 0, len(media))
	for i := range media {
		out = append(out, media[i].ToResponse())
	}
	return out, nil
}

func (s *MediaService) GetMedia(ctx context.Context, id uint) (*models.MediaResponse, error) {
	media, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapMediaErr(err)
	}
	resp := media.ToResponse()
	return &resp, nil
}

func (s *MediaService) DeleteMedia(ctx context.Context, id uint) error {
	media, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapMediaErr(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapMediaErr(err)
	}
	if err := s.storage.Remove(ctx, media.ObjectKey); err != nil {
		slog.Warn("Failed to remove media object", "objectKey", media.ObjectKey, "error", err)
	}
	return nil
}

func mapMediaErr(err error) error {
	if errors.Is(err, postgres.ErrNotFound) {
		return ErrMediaNotFound
	}
	return err
}
