package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	S3Region          string `env:"S3_REGION"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL"`

	LivenessInterval time.Duration `env:"LIVENESS_INTERVAL" default:"30s"`

	UploadRatePerSecond float64 `env:"UPLOAD_RATE_PER_SECOND" default:"1"`
	UploadRateBurst     int     `env:"UPLOAD_RATE_BURST" default:"5"`
}

// ObjectStoreConfigured reports whether the S3 settings are present. When
// they are not, the server runs with image uploads disabled.
func (c *Config) ObjectStoreConfigured() bool {
	return c.S3Bucket != ""
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// S3 settings must be set together or not at all.
	if cfg.S3Bucket != "" || cfg.S3AccessKeyID != "" || cfg.S3SecretAccessKey != "" {
		required := map[string]string{
			"S3_REGION":            cfg.S3Region,
			"S3_ACCESS_KEY_ID":     cfg.S3AccessKeyID,
			"S3_SECRET_ACCESS_KEY": cfg.S3SecretAccessKey,
			"S3_BUCKET":            cfg.S3Bucket,
		}
		for name, value := range required {
			if value == "" {
				return fmt.Errorf("%s is required when object storage is configured", name)
			}
		}
	}

	if cfg.LivenessInterval <= 0 {
		return fmt.Errorf("LIVENESS_INTERVAL must be positive")
	}

	return nil
}
