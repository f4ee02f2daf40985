package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	MinIO     MinIOConfig
	Kafka     KafkaConfig
	AI        AIConfig
	WebSocket WebSocketConfig
	Log       LogConfig
}

var (
	ConfigInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string // postgres or mysql
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds the driver specific connection string.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type JWTConfig struct {
	Secret         string
	ExpirationTime time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// AIConfig points at an OpenAI compatible chat completions endpoint.
// An empty APIKey disables remote calls and leaves only the fallback tagger.
type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	MaxMessageSize  int64
	WriteWait       time.Duration
	// PingInterval enables ping/pong keepalive when > 0. Zero leaves liveness
	// to transport close events only.
	PingInterval time.Duration
	// InboundRate is the allowed inbound messages per second per connection.
	InboundRate  float64
	InboundBurst int
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "signage")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)

	v.SetDefault("JWT_SECRET", "secret")
	v.SetDefault("JWT_EXPIRATION", 24*time.Hour)

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "signage-media")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "signage.events")
	v.SetDefault("KAFKA_GROUP_ID", "signage-eventlog")

	v.SetDefault("AI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_TIMEOUT", 20*time.Second)

	v.SetDefault("WS_READ_BUFFER_SIZE", 1024)
	v.SetDefault("WS_WRITE_BUFFER_SIZE", 1024)
	v.SetDefault("WS_SEND_BUFFER_SIZE", 256)
	v.SetDefault("WS_MAX_MESSAGE_SIZE", 64*1024)
	v.SetDefault("WS_WRITE_WAIT", 10*time.Second)
	v.SetDefault("WS_PING_INTERVAL", time.Duration(0))
	v.SetDefault("WS_INBOUND_RATE", 20.0)
	v.SetDefault("WS_INBOUND_BURST", 40)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads configuration from the environment into a fresh Config.
func Load(v *viper.Viper) *Config {
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetString("SERVER_PORT"),
			ReadTimeout:    v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:    v.GetDuration("SERVER_IDLE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:         v.GetString("REDIS_ADDR"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("JWT_SECRET"),
			ExpirationTime: v.GetDuration("JWT_EXPIRATION"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
			GroupID: v.GetString("KAFKA_GROUP_ID"),
		},
		AI: AIConfig{
			BaseURL: strings.TrimRight(v.GetString("AI_BASE_URL"), "/"),
			APIKey:  v.GetString("AI_API_KEY"),
			Model:   v.GetString("AI_MODEL"),
			Timeout: v.GetDuration("AI_TIMEOUT"),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  v.GetInt("WS_READ_BUFFER_SIZE"),
			WriteBufferSize: v.GetInt("WS_WRITE_BUFFER_SIZE"),
			SendBufferSize:  v.GetInt("WS_SEND_BUFFER_SIZE"),
			MaxMessageSize:  v.GetInt64("WS_MAX_MESSAGE_SIZE"),
			WriteWait:       v.GetDuration("WS_WRITE_WAIT"),
			PingInterval:    v.GetDuration("WS_PING_INTERVAL"),
			InboundRate:     v.GetFloat64("WS_INBOUND_RATE"),
			InboundBurst:    v.GetInt("WS_INBOUND_BURST"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
	}
}

// LoadConfig loads the process wide configuration once. A .env file in the
// working directory is honoured when present.
func LoadConfig() (*Config, error) {
	var err error
	once.Do(func() {
		if loadErr := godotenv.Load(); loadErr != nil {
			slog.Debug("No .env file found, using environment variables")
		}
		cfg := Load(viper.New())
		if err = cfg.Validate(); err != nil {
			return
		}
		ConfigInstance = cfg
	})
	if err != nil {
		return nil, err
	}
	if ConfigInstance == nil {
		return nil, fmt.Errorf("config: previous load failed")
	}
	return ConfigInstance, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("config: SERVER_PORT is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.WebSocket.SendBufferSize <= 0 {
		return fmt.Errorf("config: WS_SEND_BUFFER_SIZE must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
