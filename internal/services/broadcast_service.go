package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"signage-service/internal/adapters/kafka"
	"signage-service/internal/models"
	"signage-service/internal/repositories/postgres"
	"signage-service/internal/websocket"

	"github.com/google/uuid"
)

type BroadcastRepository interface {
	Create(ctx context.Context, b *models.Broadcast) error
	FindByID(ctx context.Context, id uint) (*models.Broadcast, error)
	FindRecent(ctx context.Context, limit int) ([]models.Broadcast, error)
}

// Dispatcher is implemented by websocket.Hub.
type Dispatcher interface {
	Dispatch(deviceKeys []string, msg websocket.Message) (websocket.DispatchResult, error)
}

type PlaylistLoader interface {
	GetPlaylistWithItems(ctx context.Context, id uint) (*models.PlaylistResponse, error)
}

type ScreenLoader interface {
	FindScreensByIDs(ctx context.Context, ids []uint) ([]models.Screen, error)
}

// BroadcastOutcome is returned to the console after a broadcast request.
type BroadcastOutcome struct {
	Broadcast models.BroadcastResponse `json:"broadcast"`
	Delivered []string                 `json:"delivered"`
	Missing   []string                 `json:"missing"`
	Skipped   []string                 `json:"skipped"`
	Failed    []string                 `json:"failed"`
	Unknown   []uint                   `json:"unknownScreenIds"`
}

type BroadcastService struct {
	repo       BroadcastRepository
	playlists  PlaylistLoader
	screens    ScreenLoader
	dispatcher Dispatcher
	events     kafka.Publisher
}

func NewBroadcastService(repo BroadcastRepository, playlists PlaylistLoader, screens ScreenLoader, dispatcher Dispatcher, events kafka.Publisher) *BroadcastService {
	if events == nil {
		events = kafka.NoopPublisher{}
	}
	return &BroadcastService{
		repo:       repo,
		playlists:  playlists,
		screens:    screens,
		dispatcher: dispatcher,
		events:     events,
	}
}

// Broadcast pushes the playlist snapshot to the requested screens and records
// the attempt. Delivery is best effort: once dispatch has run the call
// succeeds regardless of how many screens were reachable.
func (s *BroadcastService) Broadcast(ctx context.Context, req *models.CreateBroadcastRequest) (*BroadcastOutcome, error) {
	if len(req.ScreenIDs) == 0 {
		return nil, ErrInvalidRequest
	}

	playlist, err := s.playlists.GetPlaylistWithItems(ctx, req.PlaylistID)
	if err != nil {
		return nil, err
	}

	screens, err := s.screens.FindScreensByIDs(ctx, uniqueIDs(req.ScreenIDs))
	if err != nil {
		return nil, err
	}

	found := make(map[uint]bool, len(screens))
	deviceKeys := make([]string, 0, len(screens))
	targets := make([]*models.Screen, 0, len(screens))
	for i := range screens {
		found[screens[i].ID] = true
		deviceKeys = append(deviceKeys, screens[i].DeviceKey)
		targets = append(targets, &screens[i])
	}
	var unknown []uint
	for _, id := range uniqueIDs(req.ScreenIDs) {
		if !found[id] {
			unknown = append(unknown, id)
		}
	}

	broadcastID := uuid.NewString()
	result, err := s.dispatcher.Dispatch(deviceKeys, websocket.NewLoadPlaylistMessage(*playlist, broadcastID))
	if err != nil {
		return nil, fmt.Errorf("failed to dispatch playlist: %w", err)
	}

	record := models.Broadcast{
		BroadcastID:    broadcastID,
		PlaylistID:     playlist.ID,
		Status:         models.BroadcastStatusBroadcasting,
		TargetCount:    len(deviceKeys),
		DeliveredCount: result.DeliveredCount(),
		Screens:        targets,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		// Dispatch already happened, so the request still succeeds.
		slog.Error("Failed to persist broadcast", "broadcastID", broadcastID, "error", err)
	}

	slog.Info("Playlist broadcast",
		"broadcastID", broadcastID,
		"playlistID", playlist.ID,
		"targets", len(deviceKeys),
		"delivered", result.DeliveredCount())

	outcome := &BroadcastOutcome{
		Broadcast: record.ToResponse(),
		Delivered: orEmpty(result.Delivered),
		Missing:   orEmpty(result.Missing),
		Skipped:   orEmpty(result.Skipped),
		Failed:    orEmpty(result.Failed),
		Unknown:   unknown,
	}
	if outcome.Unknown == nil {
		outcome.Unknown = []uint{}
	}

	if ev, err := kafka.NewEvent(kafka.EventBroadcastCreated, broadcastID, outcome); err == nil {
		if err := s.events.Publish(ctx, ev); err != nil {
			slog.Warn("Failed to publish event", "type", ev.Type, "error", err)
		}
	}
	return outcome, nil
}

func (s *BroadcastService) GetBroadcast(ctx context.Context, id uint) (*models.BroadcastResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, ErrBroadcastNotFound
		}
		return nil, err
	}
	resp := b.ToResponse()
	return &resp, nil
}

func (s *BroadcastService) ListBroadcasts(ctx context.Context, limit int) ([]models.BroadcastResponse, error) {
	list, err := s.repo.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	out := make([]models.BroadcastResponse, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToResponse())
	}
	return out, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
