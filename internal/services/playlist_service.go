package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"signage-service/internal/adapters/kafka"
	"signage-service/internal/models"
	"signage-service/internal/repositories/postgres"
)

type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	Update(ctx context.Context, playlist *models.Playlist) error
	Delete(ctx context.Context, id uint) error
	FindAll(ctx context.Context) ([]models.Playlist, error)
	FindWithItems(ctx context.Context, id uint) (*models.Playlist, error)
	ReplaceItems(ctx context.Context, playlistID uint, items []models.PlaylistItem) error
}

type PlaylistSuggester interface {
	SuggestPlaylist(ctx context.Context, prompt string, library []models.Media, maxItems int) (*models.PlaylistSuggestion, error)
}

type PlaylistService struct {
	repo      PlaylistRepository
	media     MediaRepository
	suggester PlaylistSuggester
	events    kafka.Publisher
}

func NewPlaylistService(repo PlaylistRepository, media MediaRepository, suggester PlaylistSuggester, events kafka.Publisher) *PlaylistService {
	if events == nil {
		events = kafka.NoopPublisher{}
	}
	return &PlaylistService{repo: repo, media: media, suggester: suggester, events: events}
}

func (s *PlaylistService) CreatePlaylist(ctx context.Context, req *models.CreatePlaylistRequest) (*models.PlaylistResponse, error) {
	playlist := models.Playlist{Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, &playlist); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	resp := playlist.ToResponse()
	return &resp, nil
}

func (s *PlaylistService) ListPlaylists(ctx context.Context) ([]models.PlaylistResponse, error) {
	playlists, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	out := make([]models.PlaylistResponse, 0, len(playlists))
	for i := range playlists {
		out = append(out, playlists[i].ToResponse())
	}
	return out, nil
}

// GetPlaylistWithItems returns the playlist with ordered items and resolved
// media, the shape sent to screens.
func (s *PlaylistService) GetPlaylistWithItems(ctx context.Context, id uint) (*models.PlaylistResponse, error) {
	playlist, err := s.repo.FindWithItems(ctx, id)
	if err != nil {
		return nil, mapPlaylistErr(err)
	}
	resp := playlist.ToResponse()
	return &resp, nil
}

func (s *PlaylistService) UpdatePlaylist(ctx context.Context, id uint, req *models.UpdatePlaylistRequest) (*models.PlaylistResponse, error) {
	playlist, err := s.repo.FindWithItems(ctx, id)
	if err != nil {
		return nil, mapPlaylistErr(err)
	}
	if req.Name != nil {
		playlist.Name = *req.Name
	}
	if req.Description != nil {
		playlist.Description = *req.Description
	}
	if err := s.repo.Update(ctx, playlist); err != nil {
		return nil, fmt.Errorf("failed to update playlist: %w", err)
	}
	s.publishUpdated(ctx, playlist.ID)
	resp := playlist.ToResponse()
	return &resp, nil
}

func (s *PlaylistService) DeletePlaylist(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapPlaylistErr(err)
	}
	return nil
}

// SetItems replaces the playlist contents in the given order. Every media id
// must exist.
func (s *PlaylistService) SetItems(ctx context.Context, id uint, req *models.SetPlaylistItemsRequest) (*models.PlaylistResponse, error) {
	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.MediaID)
	}
	found, err := s.media.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media: %w", err)
	}
	known := make(map[uint]bool, len(found))
	for _, m := range found {
		known[m.ID] = true
	}

	items := make([]models.PlaylistItem, 0, len(req.Items))
	for _, it := range req.Items {
		if !known[it.MediaID] {
			return nil, fmt.Errorf("%w: id %d", ErrMediaNotFound, it.MediaID)
		}
		duration := it.DurationSeconds
		if duration <= 0 {
			duration = defaultItemDuration
		}
		items = append(items, models.PlaylistItem{MediaID: it.MediaID, DurationSeconds: duration})
	}

	if err := s.repo.ReplaceItems(ctx, id, items); err != nil {
		return nil, mapPlaylistErr(err)
	}
	slog.Info("Playlist items replaced", "playlistID", id, "items", len(items))
	s.publishUpdated(ctx, id)
	return s.GetPlaylistWithItems(ctx, id)
}

// Suggest drafts a playlist from the media library. The draft is not saved.
func (s *PlaylistService) Suggest(ctx context.Context, req *models.SuggestPlaylistRequest) (*models.PlaylistSuggestion, error) {
	library, err := s.media.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load media library: %w", err)
	}
	return s.suggester.SuggestPlaylist(ctx, req.Prompt, library, req.MaxItems)
}

func (s *PlaylistService) publishUpdated(ctx context.Context, id uint) {
	ev, err := kafka.NewEvent(kafka.EventPlaylistUpdated, fmt.Sprintf("playlist-%d", id), map[string]uint{"playlistId": id})
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		slog.Warn("Failed to publish event", "type", kafka.EventPlaylistUpdated, "error", err)
	}
}

func mapPlaylistErr(err error) error {
	if errors.Is(err, postgres.ErrNotFound) {
		return ErrPlaylistNotFound
	}
	return err
}
