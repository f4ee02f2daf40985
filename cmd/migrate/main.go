package main

import (
	"log"
	"log/slog"

	"signage-service/internal/config"
	"signage-service/internal/database"
	"signage-service/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logging.InitLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("Starting database migration...", "driver", cfg.Database.Driver)

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	slog.Info("Database migration completed successfully!")
}
