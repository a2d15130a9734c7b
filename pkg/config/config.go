// Package config reads process configuration from the environment and an
// optional .env file. User settings live in the store, not here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/borgmon/wakeup/pkg/store"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables.
const (
	EnvStore       = "WAKE_STORE"
	EnvDBPath      = "WAKE_DB_PATH"
	EnvCheckPeriod = "WAKE_CHECK_PERIOD"
	EnvLogLevel    = "WAKE_LOG_LEVEL"
	EnvAppID       = "WAKE_APP_ID"
)

// Store backends.
const (
	StorePrefs  = "prefs"
	StoreSQLite = "sqlite"
)

const (
	DefaultAppID       = "com.borgmon.wakeup"
	DefaultCheckPeriod = time.Second
)

// Config is the process configuration.
type Config struct {
	Store       string
	DBPath      string
	CheckPeriod time.Duration
	LogLevel    zapcore.Level
	AppID       string
}

// Load reads the given .env files (".env" when none are given) and then the
// environment, which takes precedence. Missing .env files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	fileEnv := make(map[string]string)
	for _, f := range envFiles {
		vars, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vars {
			if _, ok := fileEnv[k]; !ok {
				fileEnv[k] = v
			}
		}
	}

	return parse(func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileEnv[key]
	})
}

func parse(getenv func(string) string) (Config, error) {
	cfg := Config{
		Store:       StorePrefs,
		CheckPeriod: DefaultCheckPeriod,
		LogLevel:    zapcore.InfoLevel,
		AppID:       DefaultAppID,
	}

	switch v := getenv(EnvStore); v {
	case "", StorePrefs:
	case StoreSQLite:
		cfg.Store = StoreSQLite
	default:
		return Config{}, fmt.Errorf("%s: unknown store %q", EnvStore, v)
	}

	cfg.DBPath = getenv(EnvDBPath)
	if cfg.Store == StoreSQLite && cfg.DBPath == "" {
		path, err := store.DefaultDBPath()
		if err != nil {
			return Config{}, fmt.Errorf("default database path: %w", err)
		}
		cfg.DBPath = path
	}

	if v := getenv(EnvCheckPeriod); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvCheckPeriod, err)
		}
		if d <= 0 || d > time.Minute {
			return Config{}, fmt.Errorf("%s: %s is outside (0, 1m]", EnvCheckPeriod, d)
		}
		cfg.CheckPeriod = d
	}

	if v := getenv(EnvLogLevel); v != "" {
		level, err := zapcore.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	if v := getenv(EnvAppID); v != "" {
		cfg.AppID = v
	}
	return cfg, nil
}

// Logger builds the process logger: development output at debug level,
// production JSON otherwise.
func (c Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.LogLevel == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)
	return zc.Build()
}
