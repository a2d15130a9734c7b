package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(env(nil))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Store:       StorePrefs,
		CheckPeriod: time.Second,
		LogLevel:    zapcore.InfoLevel,
		AppID:       DefaultAppID,
	}, cfg)
}

func TestParseSQLite(t *testing.T) {
	cfg, err := parse(env(map[string]string{
		EnvStore:       "sqlite",
		EnvDBPath:      "/var/lib/wakeup.db",
		EnvCheckPeriod: "500ms",
		EnvLogLevel:    "debug",
		EnvAppID:       "org.example.alarm",
	}))
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/var/lib/wakeup.db", cfg.DBPath)
	assert.Equal(t, 500*time.Millisecond, cfg.CheckPeriod)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "org.example.alarm", cfg.AppID)
}

func TestParseSQLiteDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := parse(env(map[string]string{EnvStore: "sqlite"}))
	require.NoError(t, err)
	assert.Equal(t, "wakeup.db", filepath.Base(cfg.DBPath))
}

func TestParseErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"store":       {EnvStore: "redis"},
		"period":      {EnvCheckPeriod: "soon"},
		"zero period": {EnvCheckPeriod: "0s"},
		"long period": {EnvCheckPeriod: "2m"},
		"level":       {EnvLogLevel: "loud"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parse(env(vars))
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wake.env")
	require.NoError(t, os.WriteFile(path, []byte("WAKE_CHECK_PERIOD=2s\nWAKE_APP_ID=from.file\n"), 0o600))

	// the environment wins over the file
	t.Setenv(EnvAppID, "from.env")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.CheckPeriod)
	assert.Equal(t, "from.env", cfg.AppID)
}

func TestLogger(t *testing.T) {
	for _, level := range []zapcore.Level{zapcore.DebugLevel, zapcore.WarnLevel} {
		log, err := Config{LogLevel: level}.Logger()
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(level))
		assert.False(t, log.Core().Enabled(level-1))
	}
}
