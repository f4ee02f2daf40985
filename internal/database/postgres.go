package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"signage-service/internal/config"
	"signage-service/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxConnectRetries = 5
	connectRetryDelay = 3 * time.Second
)

// NewConnection opens a gorm connection for the configured driver, retrying a
// few times while the database container comes up.
func NewConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: false,
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	}

	var db *gorm.DB
	for attempt := 1; attempt <= maxConnectRetries; attempt++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		slog.Warn("Failed to connect to database",
			"driver", cfg.Driver, "attempt", attempt, "maxAttempts", maxConnectRetries, "error", err)
		time.Sleep(connectRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxConnectRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	slog.Info("Database connection established", "driver", cfg.Driver, "host", cfg.Host, "db", cfg.DBName)
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(cfg.DSN()), nil
	case "mysql":
		return mysql.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate runs AutoMigrate for every persisted model.
func Migrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.User{},
		&models.Screen{},
		&models.Media{},
		&models.Playlist{},
		&models.PlaylistItem{},
		&models.Broadcast{},
	}

	for _, model := range modelsToMigrate {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SQLPinger adapts a gorm handle to the readiness probe.
type SQLPinger struct {
	db *gorm.DB
}

func NewSQLPinger(db *gorm.DB) SQLPinger {
	return SQLPinger{db: db}
}

func (p SQLPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
