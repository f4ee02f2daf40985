package main

// @title           Signage Service API
// @version         1.0
// @description     Screens, media, playlists and live playlist broadcast for digital signage players
// @host            localhost:8080
// @BasePath        /api
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"signage-service/internal/config"
	"signage-service/internal/logging"
	"signage-service/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logging.InitLogger(cfg.Log.Level, cfg.Log.Format)
	slog.Info("Starting signage server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}
