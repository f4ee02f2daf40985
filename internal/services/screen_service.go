package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"signage-service/internal/adapters/kafka"
	"signage-service/internal/models"
	"signage-service/internal/repositories/postgres"

	"github.com/google/uuid"
)

type ScreenRepository interface {
	Create(ctx context.Context, screen *models.Screen) error
	UpdateDetails(ctx context.Context, id uint, name, location string) error
	UpdateDeviceKey(ctx context.Context, id uint, deviceKey string) error
	Delete(ctx context.Context, id uint) error
	FindAll(ctx context.Context) ([]models.Screen, error)
	FindOnline(ctx context.Context) ([]models.Screen, error)
	FindByID(ctx context.Context, id uint) (*models.Screen, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Screen, error)
	FindByDeviceKey(ctx context.Context, deviceKey string) (*models.Screen, error)
	UpdateOnlineStatus(ctx context.Context, deviceKey string, online bool, at time.Time) error
	UpdateLastStatus(ctx context.Context, deviceKey string, status string, at time.Time) error
}

// PresenceCache mirrors presence outside the database. Implemented by RedisService.
type PresenceCache interface {
	SetScreenOnline(ctx context.Context, deviceKey string) error
	SetScreenOffline(ctx context.Context, deviceKey string) error
	SetScreenStatus(ctx context.Context, deviceKey string, status []byte) error
}

type ScreenService struct {
	repo     ScreenRepository
	presence PresenceCache
	events   kafka.Publisher
	now      func() time.Time
}

// NewScreenService wires the screen service. presence may be nil.
func NewScreenService(repo ScreenRepository, presence PresenceCache, events kafka.Publisher) *ScreenService {
	if events == nil {
		events = kafka.NoopPublisher{}
	}
	return &ScreenService{
		repo:     repo,
		presence: presence,
		events:   events,
		now:      time.Now,
	}
}

func generateDeviceKey() string {
	return uuid.NewString()
}

func (s *ScreenService) CreateScreen(ctx context.Context, req *models.CreateScreenRequest) (*models.ScreenResponse, error) {
	screen := models.Screen{
		Name:      req.Name,
		Location:  req.Location,
		DeviceKey: generateDeviceKey(),
	}
	if err := s.repo.Create(ctx, &screen); err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	slog.Info("Screen created", "screenID", screen.ID, "deviceKey", screen.DeviceKey)
	resp := screen.ToResponse()
	return &resp, nil
}

func (s *ScreenService) ListScreens(ctx context.Context) ([]models.ScreenResponse, error) {
	screens, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list screens: %w", err)
	}
	return toScreenResponses(screens), nil
}

func (s *ScreenService) ListOnlineScreens(ctx context.Context) ([]models.ScreenResponse, error) {
	screens, err := s.repo.FindOnline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list online screens: %w", err)
	}
	return toScreenResponses(screens), nil
}

func (s *ScreenService) GetScreen(ctx context.Context, id uint) (*models.ScreenResponse, error) {
	screen, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapScreenErr(err)
	}
	resp := screen.ToResponse()
	return &resp, nil
}

func (s *ScreenService) UpdateScreen(ctx context.Context, id uint, req *models.UpdateScreenRequest) (*models.ScreenResponse, error) {
	screen, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapScreenErr(err)
	}
	name, location := screen.Name, screen.Location
	if req.Name != nil {
		name = *req.Name
	}
	if req.Location != nil {
		location = *req.Location
	}
	if err := s.repo.UpdateDetails(ctx, id, name, location); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, fmt.Errorf("failed to update screen: %w", err)
	}
	return s.GetScreen(ctx, id)
}

// RotateDeviceKey issues a new device key. Players using the old key can no
// longer be targeted by broadcasts once they reconnect, and the old key is
// dropped from the presence cache.
func (s *ScreenService) RotateDeviceKey(ctx context.Context, id uint) (*models.ScreenResponse, error) {
	screen, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapScreenErr(err)
	}
	oldKey := screen.DeviceKey
	if err := s.repo.UpdateDeviceKey(ctx, id, generateDeviceKey()); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, fmt.Errorf("failed to rotate device key: %w", err)
	}
	if s.presence != nil {
		if err := s.presence.SetScreenOffline(ctx, oldKey); err != nil {
			slog.Warn("Failed to clear presence for rotated key", "screenID", id, "error", err)
		}
	}
	slog.Info("Screen device key rotated", "screenID", id)
	return s.GetScreen(ctx, id)
}

func (s *ScreenService) DeleteScreen(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapScreenErr(err)
	}
	return nil
}

func (s *ScreenService) GetScreenByDeviceKey(ctx context.Context, deviceKey string) (*models.Screen, error) {
	screen, err := s.repo.FindByDeviceKey(ctx, deviceKey)
	if err != nil {
		return nil, mapScreenErr(err)
	}
	return screen, nil
}

// FindScreensByIDs returns the screens that exist among ids.
func (s *ScreenService) FindScreensByIDs(ctx context.Context, ids []uint) ([]models.Screen, error) {
	screens, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load screens: %w", err)
	}
	return screens, nil
}

// UpdateScreenOnlineStatus persists a presence change coming from the socket
// registry. The Redis mirror and event are best effort.
func (s *ScreenService) UpdateScreenOnlineStatus(ctx context.Context, deviceKey string, online bool) error {
	if err := s.repo.UpdateOnlineStatus(ctx, deviceKey, online, s.now()); err != nil {
		return mapScreenErr(err)
	}

	if s.presence != nil {
		var err error
		if online {
			err = s.presence.SetScreenOnline(ctx, deviceKey)
		} else {
			err = s.presence.SetScreenOffline(ctx, deviceKey)
		}
		if err != nil {
			slog.Warn("Presence mirror update failed", "deviceKey", deviceKey, "online", online, "error", err)
		}
	}

	eventType := kafka.EventScreenOffline
	if online {
		eventType = kafka.EventScreenOnline
	}
	s.publish(ctx, eventType, deviceKey, map[string]interface{}{"deviceKey": deviceKey, "online": online})
	return nil
}

// RecordStatus stores the latest PLAYER_STATUS payload for a screen.
func (s *ScreenService) RecordStatus(ctx context.Context, deviceKey string, status json.RawMessage) error {
	if err := s.repo.UpdateLastStatus(ctx, deviceKey, string(status), s.now()); err != nil {
		return mapScreenErr(err)
	}
	if s.presence != nil {
		if err := s.presence.SetScreenStatus(ctx, deviceKey, status); err != nil {
			slog.Warn("Status mirror update failed", "deviceKey", deviceKey, "error", err)
		}
	}
	s.publish(ctx, kafka.EventScreenStatus, deviceKey, map[string]interface{}{"deviceKey": deviceKey, "status": status})
	return nil
}

func (s *ScreenService) publish(ctx context.Context, eventType, key string, data interface{}) {
	ev, err := kafka.NewEvent(eventType, key, data)
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		slog.Warn("Failed to publish event", "type", eventType, "key", key, "error", err)
	}
}

func mapScreenErr(err error) error {
	if errors.Is(err, postgres.ErrNotFound) {
		return ErrScreenNotFound
	}
	return err
}

func toScreenResponses(screens []models.Screen) []models.ScreenResponse {
	out := make([]models.ScreenResponse, 0, len(screens))
	for i := range screens {
		out = append(out, screens[i].ToResponse())
	}
	return out
}
