package store

import (
	"fmt"

	"github.com/borgmon/wakeup/pkg/models"
)

// ConfigStore handles settings persistence
type ConfigStore struct {
	kv KV
}

// NewConfigStore creates a new ConfigStore instance
func NewConfigStore(kv KV) *ConfigStore {
	return &ConfigStore{kv: kv}
}

// Load returns the stored settings, falling back to defaults for a fresh store
func (cs *ConfigStore) Load() (models.Settings, error) {
	settings := models.DefaultSettings()
	if _, err := LoadJSON(cs.kv, KeySettings, &settings); err != nil {
		return models.DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}
	return settings.Normalize(), nil
}

// Save stores settings
func (cs *ConfigStore) Save(settings models.Settings) error {
	if err := SaveJSON(cs.kv, KeySettings, settings.Normalize()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
