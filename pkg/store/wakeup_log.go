package store

import (
	"fmt"

	"github.com/borgmon/wakeup/pkg/models"
)

// WakeUpLog persists the bounded wake-up history, oldest record first.
type WakeUpLog struct {
	kv KV
}

// NewWakeUpLog creates a WakeUpLog over kv.
func NewWakeUpLog(kv KV) *WakeUpLog {
	return &WakeUpLog{kv: kv}
}

// Load returns the stored records, oldest first.
func (l *WakeUpLog) Load() ([]models.WakeUpRecord, error) {
	var records []models.WakeUpRecord
	if _, err := LoadJSON(l.kv, KeyWakeUpHistory, &records); err != nil {
		return nil, fmt.Errorf("load wake-up history: %w", err)
	}
	return records, nil
}

// Save stores the most recent models.MaxWakeUpRecords records.
func (l *WakeUpLog) Save(records []models.WakeUpRecord) error {
	if n := len(records); n > models.MaxWakeUpRecords {
		records = records[n-models.MaxWakeUpRecords:]
	}
	if records == nil {
		records = []models.WakeUpRecord{}
	}
	if err := SaveJSON(l.kv, KeyWakeUpHistory, records); err != nil {
		return fmt.Errorf("save wake-up history: %w", err)
	}
	return nil
}
