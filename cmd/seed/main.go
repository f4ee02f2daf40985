package main

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"signage-service/internal/config"
	"signage-service/internal/database"
	"signage-service/internal/logging"
	"signage-service/internal/models"
	"signage-service/internal/repositories/postgres"
	"signage-service/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logging.InitLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("Starting database seeding...")

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	ctx := context.Background()
	userService := services.NewUserService(postgres.NewUserRepository(db), cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	screenRepo := postgres.NewScreenRepository(db)
	screenService := services.NewScreenService(screenRepo, nil, nil)
	playlistService := services.NewPlaylistService(
		postgres.NewPlaylistRepository(db),
		postgres.NewMediaRepository(db),
		services.NewTaggingService(config.AIConfig{}),
		nil,
	)

	admin, err := userService.Register(ctx, &models.RegisterRequest{
		Username: "admin",
		Email:    "admin@signage.local",
		Password: "123456",
	})
	switch {
	case errors.Is(err, services.ErrUserAlreadyExists):
		slog.Warn("Admin user already exists")
	case err != nil:
		log.Fatal("Failed to create admin user:", err)
	default:
		slog.Info("Created admin user", "id", admin.ID, "email", admin.Email)
	}

	existing, err := screenService.ListScreens(ctx)
	if err != nil {
		log.Fatal("Failed to list screens:", err)
	}
	if len(existing) > 0 {
		slog.Info("Screens already seeded, skipping demo data", "screens", len(existing))
		return
	}

	demoScreens := []models.CreateScreenRequest{
		{Name: "Lobby", Location: "Ground floor"},
		{Name: "Cafeteria", Location: "First floor"},
		{Name: "Meeting Room A", Location: "Second floor"},
	}
	for i := range demoScreens {
		screen, err := screenService.CreateScreen(ctx, &demoScreens[i])
		if err != nil {
			log.Fatal("Failed to create screen:", err)
		}
		slog.Info("Created screen", "id", screen.ID, "name", screen.Name, "deviceKey", screen.DeviceKey)
	}

	playlist, err := playlistService.CreatePlaylist(ctx, &models.CreatePlaylistRequest{
		Name:        "Welcome loop",
		Description: "Default content for new screens",
	})
	if err != nil {
		log.Fatal("Failed to create playlist:", err)
	}
	slog.Info("Created playlist", "id", playlist.ID, "name", playlist.Name)

	slog.Info("Database seeding completed successfully!")
}
