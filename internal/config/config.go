package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage drivers.
const (
	StorageDriverMinIO  = "minio"
	StorageDriverMemory = "memory"
)

// Audit delivery modes.
const (
	AuditModeDirect = "direct"
	AuditModeQueue  = "queue"
)

// MinBcryptCost is the lowest accepted password hashing cost.
const MinBcryptCost = 10

type Config struct {
	Server    ServerConfig
	Worker    WorkerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Audit     AuditConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type WorkerConfig struct {
	MaxRetries      int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"coachgate"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"coachgate"`
	DBName   string `envconfig:"POSTGRES_DB" default:"coachgate"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// StorageConfig describes the S3-compatible bucket behind the gateway.
type StorageConfig struct {
	Driver         string        `envconfig:"STORAGE_DRIVER" default:"minio"`
	Endpoint       string        `envconfig:"STORAGE_ENDPOINT"`
	PublicEndpoint string        `envconfig:"STORAGE_PUBLIC_ENDPOINT"`
	AccessKey      string        `envconfig:"STORAGE_ACCESS_KEY"`
	SecretKey      string        `envconfig:"STORAGE_SECRET_KEY"`
	Bucket         string        `envconfig:"STORAGE_BUCKET"`
	Region         string        `envconfig:"STORAGE_REGION"`
	UseSSL         bool          `envconfig:"STORAGE_USE_SSL" default:"false"`
	URLExpiry      time.Duration `envconfig:"CAPABILITY_URL_EXPIRY" default:"1h"`
}

type AuthConfig struct {
	TokenSecret       string `envconfig:"AUTH_TOKEN_SECRET"`
	BcryptCost        int    `envconfig:"AUTH_BCRYPT_COST" default:"10"`
	BootstrapUsername string `envconfig:"AUTH_BOOTSTRAP_USERNAME" default:"admin"`
	BootstrapPassword string `envconfig:"AUTH_BOOTSTRAP_PASSWORD" default:"admin"`
}

type AuditConfig struct {
	Mode           string `envconfig:"AUDIT_MODE" default:"direct"`
	MaxEntries     int    `envconfig:"AUDIT_MAX_ENTRIES" default:"1000"`
	ArchiveEnabled bool   `envconfig:"AUDIT_ARCHIVE_ENABLED" default:"false"`
}

type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD" default:""`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TableTTL time.Duration `envconfig:"TABLE_CACHE_TTL" default:"5m"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RabbitMQConfig struct {
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"coachgate"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"coachgate"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

// RateLimitConfig bounds unauthenticated endpoints per client IP.
type RateLimitConfig struct {
	Requests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	Window   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	Burst    int           `envconfig:"RATE_LIMIT_BURST" default:"5"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// SlogLevel maps the configured level name to a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Auth.BcryptCost < MinBcryptCost {
		cfg.Auth.BcryptCost = MinBcryptCost
	}
	return &cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageDriverMinIO:
		if c.Storage.Endpoint == "" {
			errs = append(errs, errors.New("STORAGE_ENDPOINT is required"))
		}
		if c.Storage.AccessKey == "" {
			errs = append(errs, errors.New("STORAGE_ACCESS_KEY is required"))
		}
		if c.Storage.SecretKey == "" {
			errs = append(errs, errors.New("STORAGE_SECRET_KEY is required"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("STORAGE_BUCKET is required"))
	}
	if c.Storage.URLExpiry <= 0 {
		errs = append(errs, errors.New("CAPABILITY_URL_EXPIRY must be positive"))
	}
	if c.Auth.TokenSecret == "" {
		errs = append(errs, errors.New("AUTH_TOKEN_SECRET is required"))
	}

	switch c.Audit.Mode {
	case AuditModeDirect, AuditModeQueue:
	default:
		errs = append(errs, fmt.Errorf("unknown AUDIT_MODE %q", c.Audit.Mode))
	}
	if c.Audit.MaxEntries <= 0 {
		errs = append(errs, errors.New("AUDIT_MAX_ENTRIES must be positive"))
	}

	return errors.Join(errs...)
}
