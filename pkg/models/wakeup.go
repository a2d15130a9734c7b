package models

// MaxWakeUpRecords bounds the persisted wake-up log.
const MaxWakeUpRecords = 7

// WakeUpRecord is one logged alarm dismissal
type WakeUpRecord struct {
	Date      string `json:"date"`      // YYYY-MM-DD
	Time      string `json:"time"`      // HH:MM
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}
