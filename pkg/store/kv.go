// Package store persists alarms, settings and the wake-up log as JSON values
// in a key/value backend.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Keys of the values kept in the backend.
const (
	KeyAlarms        = "alarms"
	KeySettings      = "settings"
	KeyWakeUpHistory = "wakeUpHistory"
)

// ErrNotFound is returned when a key or record does not exist.
var ErrNotFound = errors.New("not found")

// KV is a string key/value backend.
type KV interface {
	// Get returns ErrNotFound when the key has never been set.
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// LoadJSON decodes the value under key into v. It returns false, nil when the
// key is missing.
func LoadJSON(kv KV, key string, v any) (bool, error) {
	raw, err := kv.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := kv.Set(key, string(data)); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}
