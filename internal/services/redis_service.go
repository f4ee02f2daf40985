package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"signage-service/internal/database"

	"github.com/redis/go-redis/v9"
)

const (
	onlineScreensKey  = "online_screens"
	screenStatusTTL   = 24 * time.Hour
	screenPresenceTTL = 5 * time.Minute
)

func screenPresenceKey(deviceKey string) string {
	return fmt.Sprintf("screen:%s:presence", deviceKey)
}

func screenStatusKey(deviceKey string) string {
	return fmt.Sprintf("screen:%s:status", deviceKey)
}

// RedisService mirrors screen presence into Redis for dashboards and backs the
// HTTP rate limiter.
type RedisService struct {
	client *database.RedisClient
}

func NewRedisService(client *database.RedisClient) *RedisService {
	return &RedisService{client: client}
}

// =============================================================================
// Screen presence
// =============================================================================

func (r *RedisService) SetScreenOnline(ctx context.Context, deviceKey string) error {
	now := time.Now().Unix()
	pipe := r.client.GetClient().Pipeline()
	pipe.SAdd(ctx, onlineScreensKey, deviceKey)
	pipe.HSet(ctx, screenPresenceKey(deviceKey), map[string]interface{}{
		"status":     "online",
		"last_seen":  now,
		"updated_at": now,
	})
	pipe.Expire(ctx, screenPresenceKey(deviceKey), screenPresenceTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to set screen online", "deviceKey", deviceKey, "error", err)
		return err
	}
	slog.Debug("Screen set to online", "deviceKey", deviceKey)
	return nil
}

func (r *RedisService) SetScreenOffline(ctx context.Context, deviceKey string) error {
	now := time.Now().Unix()
	pipe := r.client.GetClient().Pipeline()
	pipe.SRem(ctx, onlineScreensKey, deviceKey)
	pipe.HSet(ctx, screenPresenceKey(deviceKey), map[string]interface{}{
		"status":     "offline",
		"last_seen":  now,
		"updated_at": now,
	})
	pipe.Expire(ctx, screenPresenceKey(deviceKey), screenStatusTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to set screen offline", "deviceKey", deviceKey, "error", err)
		return err
	}
	slog.Debug("Screen set to offline", "deviceKey", deviceKey)
	return nil
}

// SetScreenStatus stores the latest raw status report for a screen.
func (r *RedisService) SetScreenStatus(ctx context.Context, deviceKey string, status []byte) error {
	err := r.client.GetClient().Set(ctx, screenStatusKey(deviceKey), status, screenStatusTTL).Err()
	if err != nil {
		slog.Error("Failed to store screen status", "deviceKey", deviceKey, "error", err)
	}
	return err
}

func (r *RedisService) GetScreenStatus(ctx context.Context, deviceKey string) (string, error) {
	v, err := r.client.GetClient().Get(ctx, screenStatusKey(deviceKey)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

func (r *RedisService) IsScreenOnline(ctx context.Context, deviceKey string) (bool, error) {
	return r.client.GetClient().SIsMember(ctx, onlineScreensKey, deviceKey).Result()
}

func (r *RedisService) GetOnlineScreens(ctx context.Context) ([]string, error) {
	return r.client.GetClient().SMembers(ctx, onlineScreensKey).Result()
}

// ClearOnlineScreens drops the presence set; the in-process registry starts
// empty so any members left from a previous run are stale.
func (r *RedisService) ClearOnlineScreens(ctx context.Context) error {
	return r.client.GetClient().Del(ctx, onlineScreensKey).Err()
}

// =============================================================================
// Rate limiting
// =============================================================================

// CheckRateLimit implements a sliding window over a sorted set. It reports
// whether the current request fits under limit.
func (r *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := r.client.GetClient().Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	card := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return card.Val() < int64(limit), nil
}

func (r *RedisService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
