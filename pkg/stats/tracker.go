// Package stats derives a wake-up streak and an average wake time from the
// bounded log of alarm dismissals.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/borgmon/wakeup/pkg/daytime"
	"github.com/borgmon/wakeup/pkg/models"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	NoData       = "No data yet"
	NoRecentData = "No recent data"

	averageWindow = 7 * 24 * time.Hour
)

// History loads and stores the wake-up log, oldest record first.
type History interface {
	Load() ([]models.WakeUpRecord, error)
	Save([]models.WakeUpRecord) error
}

// Tracker records dismissals and answers streak/average queries.
type Tracker struct {
	history History
	clock   clockwork.Clock
	log     *zap.Logger
}

// NewTracker creates a tracker over history.
func NewTracker(history History, clock clockwork.Clock, log *zap.Logger) *Tracker {
	return &Tracker{history: history, clock: clock, log: log}
}

// RecordWakeUp appends a record for now and trims the log to the most recent
// models.MaxWakeUpRecords entries.
func (t *Tracker) RecordWakeUp() (models.WakeUpRecord, error) {
	records, err := t.history.Load()
	if err != nil {
		return models.WakeUpRecord{}, err
	}

	now := t.clock.Now()
	rec := models.WakeUpRecord{
		Date:      daytime.DateKey(now),
		Time:      daytime.Clock(now),
		Timestamp: now.UnixMilli(),
	}
	records = append(records, rec)
	if n := len(records); n > models.MaxWakeUpRecords {
		records = records[n-models.MaxWakeUpRecords:]
	}

	if err := t.history.Save(records); err != nil {
		return models.WakeUpRecord{}, err
	}
	t.log.Debug("wake-up recorded", zap.String("date", rec.Date), zap.String("time", rec.Time))
	return rec, nil
}

// Records returns the log, oldest first.
func (t *Tracker) Records() ([]models.WakeUpRecord, error) {
	return t.history.Load()
}

// Streak counts consecutive calendar days with a wake-up, ending today or
// yesterday. A fully missed day resets it to zero.
func (t *Tracker) Streak() (int, error) {
	records, err := t.history.Load()
	if err != nil {
		return 0, err
	}
	return streak(records, t.clock.Now()), nil
}

func streak(records []models.WakeUpRecord, now time.Time) int {
	if len(records) == 0 {
		return 0
	}

	today := daytime.StartOfDay(now)
	newest := records[len(records)-1].Date
	if newest != daytime.DateKey(today) && newest != daytime.DateKey(today.AddDate(0, 0, -1)) {
		return 0
	}

	expected, err := daytime.ParseDate(newest, now.Location())
	if err != nil {
		return 0
	}

	count := 0
	for i := len(records) - 1; i >= 0; i-- {
		date := records[i].Date
		if date == daytime.DateKey(expected) {
			count++
			expected = expected.AddDate(0, 0, -1)
			continue
		}
		// several dismissals on one day count once
		if date == daytime.DateKey(expected.AddDate(0, 0, 1)) {
			continue
		}
		break
	}
	return count
}

// AverageWakeTime averages the wake times of the trailing seven days and
// returns it as "H:MM AM/PM", or NoData / NoRecentData.
func (t *Tracker) AverageWakeTime() (string, error) {
	records, err := t.history.Load()
	if err != nil {
		return "", err
	}
	return averageWakeTime(records, t.clock.Now()), nil
}

func averageWakeTime(records []models.WakeUpRecord, now time.Time) string {
	if len(records) == 0 {
		return NoData
	}

	cutoff := now.Add(-averageWindow).UnixMilli()
	total, n := 0, 0
	for _, r := range records {
		if r.Timestamp < cutoff {
			continue
		}
		mins, err := daytime.MinuteOfDay(r.Time)
		if err != nil {
			continue
		}
		total += mins
		n++
	}
	if n == 0 {
		return NoRecentData
	}

	avg := int(math.Round(float64(total) / float64(n)))
	return daytime.To12Hour(daytime.FromMinuteOfDay(avg))
}

// Summary is a one-line description for status displays.
func (t *Tracker) Summary() string {
	s, err := t.Streak()
	if err != nil {
		t.log.Warn("streak unavailable", zap.Error(err))
		return "Streak unavailable"
	}
	avg, err := t.AverageWakeTime()
	if err != nil {
		t.log.Warn("average wake time unavailable", zap.Error(err))
		return fmt.Sprintf("Streak: %d", s)
	}
	return fmt.Sprintf("Streak: %d · Avg wake: %s", s, avg)
}
