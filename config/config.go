package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type StorageConfig struct {
	Root           string
	StagingDir     string
	StagingTTL     time.Duration
	SweepGrace     time.Duration
	MaxUploadBytes int64
}

type JobsConfig struct {
	OrphanSweepSchedule  string
	StagingCleanSchedule string
}

type EventsConfig struct {
	NatsURL       string
	SubjectPrefix string
}

type LogConfig struct {
	Level string
}

type MetricsConfig struct {
	Prefix string
}

type Config struct {
	ServiceName string
	Env         string
	Storage     StorageConfig
	Jobs        JobsConfig
	Events      EventsConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

/*
* Load .env when present
* Read every setting from the environment with a default
 */
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "tenanthub"),
		Env:         getEnv("APP_ENV", "development"),
		Storage: StorageConfig{
			Root:           getEnv("STORAGE_ROOT", "uploads"),
			StagingDir:     getEnv("STAGING_DIR", "_staging"),
			StagingTTL:     getEnvAsDuration("STAGING_TTL", 24*time.Hour),
			SweepGrace:     getEnvAsDuration("SWEEP_GRACE", time.Hour),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 32<<20)),
		},
		Jobs: JobsConfig{
			OrphanSweepSchedule:  getEnv("ORPHAN_SWEEP_SCHEDULE", "30 1 * * *"),
			StagingCleanSchedule: getEnv("STAGING_CLEAN_SCHEDULE", "0 * * * *"),
		},
		Events: EventsConfig{
			NatsURL:       getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "tenanthub"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "tenanthub"),
		},
	}
	if cfg.Storage.Root == "" {
		return nil, fmt.Errorf("STORAGE_ROOT must not be empty")
	}
	if cfg.Storage.StagingDir == "" {
		return nil, fmt.Errorf("STAGING_DIR must not be empty")
	}
	return cfg, nil
}

func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Env),
		zap.String("storage_root", c.Storage.Root),
		zap.String("staging_dir", c.Storage.StagingDir),
		zap.Bool("events_enabled", c.Events.NatsURL != ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
