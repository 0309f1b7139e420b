package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the guestbook service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"guestbook-server"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"GUESTBOOK_PORT" envDefault:"8280"`
	LogLevel        string        `env:"GUESTBOOK_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Storage Backend Selection
	StorageBackend string `env:"GUESTBOOK_STORAGE_BACKEND" envDefault:"local"` // Options: "s3" or "local"

	// Local Storage Configuration
	LocalStoragePath    string `env:"GUESTBOOK_LOCAL_STORAGE_PATH" envDefault:"./data/uploads"`
	LocalStorageBaseURL string `env:"GUESTBOOK_LOCAL_STORAGE_BASE_URL" envDefault:"/v1/media"`

	// S3 Storage Configuration
	S3Endpoint       string        `env:"GUESTBOOK_S3_ENDPOINT"`
	S3PublicEndpoint string        `env:"GUESTBOOK_S3_PUBLIC_ENDPOINT"`
	S3Region         string        `env:"GUESTBOOK_S3_REGION" envDefault:"eu-central-1"`
	S3Bucket         string        `env:"GUESTBOOK_S3_BUCKET"`
	S3AccessKeyID    string        `env:"GUESTBOOK_S3_ACCESS_KEY_ID"`
	S3SecretKey      string        `env:"GUESTBOOK_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle   bool          `env:"GUESTBOOK_S3_USE_PATH_STYLE" envDefault:"false"`
	S3PresignTTL     time.Duration `env:"GUESTBOOK_S3_PRESIGN_TTL" envDefault:"10m"`

	// Metadata Index Configuration
	MetadataKey string `env:"GUESTBOOK_METADATA_KEY" envDefault:"metadata/files.json"`

	// Media Configuration
	MaxUploadBytes  int64         `env:"GUESTBOOK_MAX_UPLOAD_BYTES" envDefault:"209715200"`
	GalleryCacheTTL time.Duration `env:"GUESTBOOK_GALLERY_CACHE_TTL" envDefault:"30s"`

	// Authentication (shared-password curtain)
	AuthEnabled   bool          `env:"GUESTBOOK_AUTH_ENABLED" envDefault:"false"`
	GuestPassword string        `env:"GUESTBOOK_PASSWORD"`
	SessionSecret string        `env:"GUESTBOOK_SESSION_SECRET"`
	SessionTTL    time.Duration `env:"GUESTBOOK_SESSION_TTL" envDefault:"24h"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.S3PublicEndpoint = strings.TrimSpace(cfg.S3PublicEndpoint)
	cfg.MetadataKey = strings.Trim(strings.TrimSpace(cfg.MetadataKey), "/")
	if cfg.MetadataKey == "" {
		cfg.MetadataKey = "metadata/files.json"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 200 * 1024 * 1024
	}
	if cfg.GalleryCacheTTL < 0 {
		cfg.GalleryCacheTTL = 0
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.GuestPassword) == "" {
			return nil, fmt.Errorf("GUESTBOOK_PASSWORD is required when GUESTBOOK_AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.SessionSecret) == "" {
			return nil, fmt.Errorf("GUESTBOOK_SESSION_SECRET is required when GUESTBOOK_AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if the local filesystem backend is configured.
func (c *Config) IsLocalStorage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "local"
}

// IsS3Storage returns true if the S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "s3"
}
