package store

import (
	"fmt"
	"sync"

	"github.com/borgmon/wakeup/pkg/models"
	"github.com/samber/lo"
)

// AlarmStore manages the persisted alarm list
type AlarmStore struct {
	mu sync.Mutex
	kv KV
}

// NewAlarmStore creates an AlarmStore over kv.
func NewAlarmStore(kv KV) *AlarmStore {
	return &AlarmStore{kv: kv}
}

// List returns all alarms in creation order.
func (as *AlarmStore) List() ([]models.Alarm, error) {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.load()
}

func (as *AlarmStore) load() ([]models.Alarm, error) {
	var alarms []models.Alarm
	if _, err := LoadJSON(as.kv, KeyAlarms, &alarms); err != nil {
		return nil, fmt.Errorf("load alarms: %w", err)
	}
	return alarms, nil
}

func (as *AlarmStore) save(alarms []models.Alarm) error {
	if alarms == nil {
		alarms = []models.Alarm{}
	}
	if err := SaveJSON(as.kv, KeyAlarms, alarms); err != nil {
		return fmt.Errorf("save alarms: %w", err)
	}
	return nil
}

// Get returns the alarm with the given ID.
func (as *AlarmStore) Get(id string) (models.Alarm, error) {
	alarms, err := as.List()
	if err != nil {
		return models.Alarm{}, err
	}
	a, ok := lo.Find(alarms, func(a models.Alarm) bool { return a.ID == id })
	if !ok {
		return models.Alarm{}, fmt.Errorf("alarm %s: %w", id, ErrNotFound)
	}
	return a, nil
}

// Upsert replaces the alarm with the same ID or appends a new one, and
// returns the full list after the change.
func (as *AlarmStore) Upsert(alarm models.Alarm) ([]models.Alarm, error) {
	if err := alarm.Validate(); err != nil {
		return nil, err
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	alarms, err := as.load()
	if err != nil {
		return nil, err
	}

	_, idx, found := lo.FindIndexOf(alarms, func(a models.Alarm) bool { return a.ID == alarm.ID })
	if found {
		alarms[idx] = alarm
	} else {
		alarms = append(alarms, alarm)
	}

	if err := as.save(alarms); err != nil {
		return nil, err
	}
	return alarms, nil
}

// Delete removes the alarm with the given ID and returns the remaining list.
func (as *AlarmStore) Delete(id string) ([]models.Alarm, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	alarms, err := as.load()
	if err != nil {
		return nil, err
	}

	remaining := lo.Reject(alarms, func(a models.Alarm, _ int) bool { return a.ID == id })
	if len(remaining) == len(alarms) {
		return nil, fmt.Errorf("alarm %s: %w", id, ErrNotFound)
	}

	if err := as.save(remaining); err != nil {
		return nil, err
	}
	return remaining, nil
}

// ReplaceAll overwrites the stored list.
func (as *AlarmStore) ReplaceAll(alarms []models.Alarm) error {
	for _, a := range alarms {
		if err := a.Validate(); err != nil {
			return err
		}
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	return as.save(alarms)
}
