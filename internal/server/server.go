package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"signage-service/internal/adapters/kafka"
	"signage-service/internal/adapters/storage"
	"signage-service/internal/api/handlers"
	"signage-service/internal/api/middleware"
	"signage-service/internal/api/routes"
	"signage-service/internal/config"
	"signage-service/internal/database"
	"signage-service/internal/metrics"
	"signage-service/internal/repositories/postgres"
	"signage-service/internal/services"
	"signage-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

// App owns every long lived resource of the signage server.
type App struct {
	cfg     *config.Config
	db      *gorm.DB
	redis   *database.RedisClient
	events  kafka.Publisher
	hub     *websocket.Hub
	metrics *metrics.Registry
	server  *http.Server
}

// NewApp connects the backing stores and wires services, the socket hub and
// the HTTP router. Redis and Kafka are optional; the database and object
// storage are not.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg, metrics: metrics.New()}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, err
	}
	app.db = db
	if err := database.Migrate(db); err != nil {
		app.close()
		return nil, err
	}

	screenRepo := postgres.NewScreenRepository(db)
	// The registry starts empty, so no screen can be online yet.
	if n, err := screenRepo.ResetOnlineStatus(ctx); err != nil {
		slog.Warn("Failed to reset screen presence", "error", err)
	} else if n > 0 {
		slog.Info("Reset stale screen presence", "screens", n)
	}

	healthChecks := map[string]handlers.Pinger{"database": database.NewSQLPinger(db)}

	var (
		presence    services.PresenceCache
		rateLimiter middleware.RateLimiter
	)
	if redisClient, err := database.NewRedisConnection(cfg.Redis); err != nil {
		slog.Warn("Redis unavailable, running without presence cache and rate limits", "error", err)
	} else {
		app.redis = redisClient
		redisService := services.NewRedisService(redisClient)
		if err := redisService.ClearOnlineScreens(ctx); err != nil {
			slog.Warn("Failed to clear cached presence", "error", err)
		}
		presence = redisService
		rateLimiter = redisService
		healthChecks["redis"] = redisClient
	}

	objectStore, err := storage.NewMinIOClient(ctx, cfg.MinIO)
	if err != nil {
		app.close()
		return nil, err
	}

	events, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		slog.Warn("Kafka unavailable, domain events disabled", "error", err)
		events = kafka.NoopPublisher{}
	}
	app.events = events

	userService := services.NewUserService(postgres.NewUserRepository(db), cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	screenService := services.NewScreenService(screenRepo, presence, events)
	tagging := services.NewTaggingService(cfg.AI)
	mediaRepo := postgres.NewMediaRepository(db)
	mediaService := services.NewMediaService(mediaRepo, objectStore, tagging, events)
	playlistService := services.NewPlaylistService(postgres.NewPlaylistRepository(db), mediaRepo, tagging, events)

	app.hub = websocket.NewHub(screenService, screenService, app.metrics.WebSocket)
	broadcastService := services.NewBroadcastService(
		postgres.NewBroadcastRepository(db),
		playlistService,
		screenService,
		app.hub,
		events,
	)

	gin.SetMode(gin.ReleaseMode)
	router := routes.NewRouter(routes.Dependencies{
		Users:        userService,
		Screens:      screenService,
		Media:        mediaService,
		Playlists:    playlistService,
		Broadcasts:   broadcastService,
		Hub:          app.hub,
		WebSocket:    cfg.WebSocket,
		Server:       cfg.Server,
		JWTSecret:    cfg.JWT.Secret,
		RateLimiter:  rateLimiter,
		Metrics:      app.metrics,
		HealthChecks: healthChecks,
	})
	router.SetupRoutes()

	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Server shutting down...")
	case err := <-errCh:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Closes player sockets and writes their offline presence.
	a.hub.Stop()
	a.close()

	slog.Info("Server stopped")
	return runErr
}

func (a *App) close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			slog.Warn("Failed to close event publisher", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
}
