// Package engine runs the alarm flows around the scheduler: it persists every
// change, pushes the full alarm list back to the scheduler and records
// wake-ups on dismissal.
package engine

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/borgmon/wakeup/pkg/calendar"
	"github.com/borgmon/wakeup/pkg/models"
	"github.com/borgmon/wakeup/pkg/nextalarm"
	"github.com/borgmon/wakeup/pkg/scheduler"
	"github.com/borgmon/wakeup/pkg/stats"
	"github.com/borgmon/wakeup/pkg/store"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrNotActive is returned by Dismiss and Snooze for an alarm that is not
// ringing.
var ErrNotActive = errors.New("alarm is not active")

// Engine owns the alarm flows of the application.
type Engine struct {
	alarms   *store.AlarmStore
	settings *store.ConfigStore
	tracker  *stats.Tracker
	sched    *scheduler.Scheduler
	clock    clockwork.Clock
	log      *zap.Logger

	mu sync.Mutex
}

// New creates an Engine. Call Reload to start checking.
func New(alarms *store.AlarmStore, settings *store.ConfigStore, tracker *stats.Tracker, sched *scheduler.Scheduler, clock clockwork.Clock, log *zap.Logger) *Engine {
	return &Engine{
		alarms:   alarms,
		settings: settings,
		tracker:  tracker,
		sched:    sched,
		clock:    clock,
		log:      log,
	}
}

// Reload pushes the stored alarms and settings to the scheduler, starting it
// if needed. When checking was stopped, snoozes that came due in the meantime
// can no longer fire: those alarms go back to their permanent schedule.
func (e *Engine) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.sched.Running() {
		if err := e.expireSnoozes(); err != nil {
			return err
		}
	}
	return e.push()
}

// expireSnoozes restores alarms whose re-fire instant is older than the
// first check window. A missed one-time alarm is disabled.
func (e *Engine) expireSnoozes() error {
	alarms, err := e.alarms.List()
	if err != nil {
		return err
	}

	cutoff := e.clock.Now().Add(-e.sched.Period())
	expired := 0
	for i, a := range alarms {
		at, ok := a.SnoozeAt()
		if !ok || at.After(cutoff) {
			continue
		}
		restored, _ := a.Restored()
		if restored.IsOneTime() {
			restored.Enabled = false
		}
		alarms[i] = restored
		expired++
		e.log.Info("missed snooze expired", zap.String("id", a.ID), zap.Time("due", at))
	}
	if expired == 0 {
		return nil
	}
	return e.alarms.ReplaceAll(alarms)
}

func (e *Engine) push() error {
	alarms, err := e.alarms.List()
	if err != nil {
		return err
	}
	settings, err := e.settings.Load()
	if err != nil {
		return err
	}
	return e.sched.StartChecking(alarms, settings.SoundEnabled, settings.VibrationEnabled)
}

// Stop stops checking.
func (e *Engine) Stop() error {
	return e.sched.StopChecking()
}

// Alarms returns the stored alarms.
func (e *Engine) Alarms() ([]models.Alarm, error) {
	return e.alarms.List()
}

// AddAlarm creates and schedules an alarm at hhmm on days, or once when days
// is empty.
func (e *Engine) AddAlarm(hhmm string, days []string) (models.Alarm, error) {
	alarm, err := models.NewAlarm(hhmm, days, e.clock.Now())
	if err != nil {
		return models.Alarm{}, err
	}
	if err := e.SaveAlarm(alarm); err != nil {
		return models.Alarm{}, err
	}
	return alarm, nil
}

// SaveAlarm stores a new or edited alarm. Editing drops a pending snooze.
func (e *Engine) SaveAlarm(alarm models.Alarm) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if restored, ok := alarm.Restored(); ok {
		alarm = restored
		e.sched.RestoreOriginalAlarm(alarm.ID)
	}
	if _, err := e.alarms.Upsert(alarm); err != nil {
		return err
	}
	e.log.Info("alarm saved", zap.String("id", alarm.ID), zap.String("time", alarm.Time), zap.Strings("days", alarm.Days))
	return e.push()
}

// DeleteAlarm removes an alarm.
func (e *Engine) DeleteAlarm(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.alarms.Delete(id); err != nil {
		return err
	}
	e.log.Info("alarm deleted", zap.String("id", id))
	return e.push()
}

// SetEnabled switches an alarm on or off. Disabling drops a pending snooze.
func (e *Engine) SetEnabled(id string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	alarm, err := e.alarms.Get(id)
	if err != nil {
		return err
	}
	if !enabled {
		if restored, ok := alarm.Restored(); ok {
			alarm = restored
			e.sched.RestoreOriginalAlarm(id)
		}
	}
	alarm.Enabled = enabled
	if _, err := e.alarms.Upsert(alarm); err != nil {
		return err
	}
	return e.push()
}

// Settings returns the stored settings.
func (e *Engine) Settings() (models.Settings, error) {
	return e.settings.Load()
}

// UpdateSettings stores settings and applies them to the scheduler.
func (e *Engine) UpdateSettings(settings models.Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.settings.Save(settings); err != nil {
		return err
	}
	return e.push()
}

// Dismiss stops the ringing alarm, puts a snoozed alarm back on its
// permanent schedule, disables a one-time alarm and records the wake-up.
func (e *Engine) Dismiss(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// stay suspended until the result is persisted
	if !e.sched.StopAlarm(id, scheduler.WithoutResume()) {
		return fmt.Errorf("dismiss %s: %w", id, ErrNotActive)
	}

	if err := e.settleDismissed(id); err != nil {
		e.log.Error("persisting dismissed alarm failed", zap.String("id", id), zap.Error(err))
	}
	if _, err := e.tracker.RecordWakeUp(); err != nil {
		e.log.Error("recording wake-up failed", zap.Error(err))
	}

	if err := e.push(); err != nil {
		// keep checking the alarms already held
		e.sched.Resume()
		return fmt.Errorf("dismiss %s: %w", id, err)
	}
	return nil
}

func (e *Engine) settleDismissed(id string) error {
	alarm, err := e.alarms.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		// deleted while ringing
		return nil
	}
	if err != nil {
		return err
	}

	if alarm.IsSnoozed() {
		if restored := e.sched.RestoreOriginalAlarm(id); restored != nil {
			restored.Enabled = alarm.Enabled
			alarm = *restored
		} else {
			alarm, _ = alarm.Restored()
		}
	}
	if alarm.IsOneTime() {
		alarm.Enabled = false
	}

	_, err = e.alarms.Upsert(alarm)
	return err
}

// Snooze reschedules the ringing alarm by the configured snooze minutes and
// persists it.
func (e *Engine) Snooze(id string) (models.Alarm, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	settings, err := e.settings.Load()
	if err != nil {
		return models.Alarm{}, err
	}

	snoozed := e.sched.SnoozeAlarm(id, settings.SnoozeMinutes)
	if snoozed == nil {
		return models.Alarm{}, fmt.Errorf("snooze %s: %w", id, ErrNotActive)
	}

	if _, err := e.alarms.Upsert(*snoozed); err != nil {
		return models.Alarm{}, err
	}
	if err := e.push(); err != nil {
		return models.Alarm{}, err
	}
	return *snoozed, nil
}

// Next returns the nearest upcoming alarm, or nil.
func (e *Engine) Next() (*nextalarm.Result, error) {
	alarms, err := e.alarms.List()
	if err != nil {
		return nil, err
	}
	return nextalarm.Next(alarms, e.clock.Now()), nil
}

// Import adds or replaces alarms from iCalendar data and returns how many
// were imported.
func (e *Engine) Import(r io.Reader) (int, error) {
	imported, err := calendar.Import(r, e.clock.Now(), e.log)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range imported {
		if _, err := e.alarms.Upsert(a); err != nil {
			return 0, err
		}
	}
	if err := e.push(); err != nil {
		return 0, err
	}
	return len(imported), nil
}

// Export writes the stored alarms as iCalendar data.
func (e *Engine) Export(w io.Writer) error {
	alarms, err := e.alarms.List()
	if err != nil {
		return err
	}
	return calendar.Export(w, alarms, e.clock.Now())
}
