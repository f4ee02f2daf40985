package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load(viper.New())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "signage.events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, time.Duration(0), cfg.WebSocket.PingInterval)
	assert.Equal(t, 256, cfg.WebSocket.SendBufferSize)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("WS_PING_INTERVAL", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.example.com")

	cfg := Load(viper.New())

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.Server.AllowedOrigins)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", DBName: "signage", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=signage sslmode=disable", pg.DSN())

	my := DatabaseConfig{Driver: "mysql", Host: "db", Port: "3306", User: "u", Password: "p", DBName: "signage"}
	assert.Equal(t, "u:p@tcp(db:3306)/signage?charset=utf8mb4&parseTime=True&loc=UTC", my.DSN())
}

func TestValidate(t *testing.T) {
	cfg := Load(viper.New())

	cfg.Database.Driver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "postgres"
	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())
}
