package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	// APIKey guards every endpoint except /health when set. Empty disables
	// the check, which is the expected mode for local single-user setups.
	APIKey string `envconfig:"API_KEY" default:""`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".sprintlane/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"sprintlane/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-southeast-1"`
}

type WatchEnv struct {
	// Watch recomputes predictions whenever the data directory changes.
	// Only effective with local storage.
	Watch         bool `envconfig:"WATCH" default:"true"`
	WatchDebounce int  `envconfig:"WATCH_DEBOUNCE_MS" default:"100"`
}

type Env struct {
	BaseEnv
	StorageEnv
	WatchEnv
}

const namespace = "SPRINTLANE"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
