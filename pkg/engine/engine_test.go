package engine

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/borgmon/wakeup/pkg/models"
	"github.com/borgmon/wakeup/pkg/scheduler"
	"github.com/borgmon/wakeup/pkg/stats"
	"github.com/borgmon/wakeup/pkg/store"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type manualLoop struct{}

func (manualLoop) Start(time.Duration, func()) error { return nil }
func (manualLoop) Stop() error                       { return nil }

type recorder struct {
	mu       sync.Mutex
	fired    []string
	silenced int
}

func (r *recorder) Fire(alarm models.Alarm, _, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, alarm.ID)
}

func (r *recorder) Silence() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.silenced++
}

// flakyKV fails reads of selected keys.
type flakyKV struct {
	store.KV
	mu   sync.Mutex
	fail map[string]error
}

func (k *flakyKV) failGet(key string, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.fail[key] = err
}

func (k *flakyKV) Get(key string) (string, error) {
	k.mu.Lock()
	err := k.fail[key]
	k.mu.Unlock()
	if err != nil {
		return "", err
	}
	return k.KV.Get(key)
}

type harness struct {
	*Engine
	kv       *flakyKV
	clock    *clockwork.FakeClock
	sched    *scheduler.Scheduler
	disp     *recorder
	alarmsDB *store.AlarmStore
	history  *store.WakeUpLog
}

// Monday
var start = time.Date(2024, 1, 1, 6, 59, 0, 0, time.Local)

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := zaptest.NewLogger(t)
	kv := &flakyKV{KV: db, fail: make(map[string]error)}
	h := &harness{
		kv:       kv,
		clock:    clockwork.NewFakeClockAt(start),
		disp:     &recorder{},
		alarmsDB: store.NewAlarmStore(kv),
		history:  store.NewWakeUpLog(kv),
	}
	h.sched = scheduler.New(h.clock, manualLoop{}, h.disp, log)
	h.Engine = New(h.alarmsDB, store.NewConfigStore(kv), stats.NewTracker(h.history, h.clock, log), h.sched, h.clock, log)
	require.NoError(t, h.Reload())
	return h
}

// ringAt advances the clock to hh:mm today and ticks.
func (h *harness) ringAt(t *testing.T, hhmm string) {
	t.Helper()
	at, err := time.ParseInLocation("15:04", hhmm, time.Local)
	require.NoError(t, err)
	target := time.Date(start.Year(), start.Month(), start.Day(), at.Hour(), at.Minute(), 0, 0, time.Local)
	if d := target.Sub(h.clock.Now()); d > 0 {
		h.clock.Advance(d)
	}
	h.sched.Tick()
}

func TestDismissOneTimeAlarm(t *testing.T) {
	h := newHarness(t)
	alarm, err := h.AddAlarm("07:00", nil)
	require.NoError(t, err)

	h.ringAt(t, "07:00")
	require.Equal(t, alarm.ID, h.sched.ActiveAlarmID())

	require.NoError(t, h.Dismiss(alarm.ID))
	assert.Empty(t, h.sched.ActiveAlarmID())
	assert.True(t, h.sched.IsCheckingActive())
	assert.Equal(t, 1, h.disp.silenced)

	stored, err := h.alarmsDB.Get(alarm.ID)
	require.NoError(t, err)
	assert.False(t, stored.Enabled, "one-time alarm is disabled after dismissal")

	records, err := h.history.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "07:00", records[0].Time)
	assert.Equal(t, "2024-01-01", records[0].Date)
}

func TestSnoozeThenDismissRestoresSchedule(t *testing.T) {
	h := newHarness(t)
	alarm, err := h.AddAlarm("07:00", []string{"Monday", "Tuesday"})
	require.NoError(t, err)

	h.ringAt(t, "07:00")
	snoozed, err := h.Snooze(alarm.ID)
	require.NoError(t, err)
	require.True(t, snoozed.IsSnoozed())
	assert.Equal(t, models.DefaultSnoozeMinutes, snoozed.Snooze.Minutes)

	stored, err := h.alarmsDB.Get(alarm.ID)
	require.NoError(t, err)
	assert.Equal(t, snoozed, stored, "snooze is persisted")

	next, err := h.Next()
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "07:05", next.Time)
	assert.Equal(t, "In 5m", next.TimeRemaining)

	h.ringAt(t, "07:05")
	require.Equal(t, alarm.ID, h.sched.ActiveAlarmID())
	assert.Equal(t, []string{alarm.ID, alarm.ID}, h.disp.fired)

	require.NoError(t, h.Dismiss(alarm.ID))
	stored, err = h.alarmsDB.Get(alarm.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSnoozed())
	assert.True(t, stored.Enabled)
	assert.Equal(t, "07:00", stored.Time)
	assert.Equal(t, []string{"Monday", "Tuesday"}, stored.Days)
	assert.False(t, h.sched.Alarms()[0].IsSnoozed())
}

func TestDismissKeepsCheckingWhenReloadFails(t *testing.T) {
	h := newHarness(t)
	first, err := h.AddAlarm("07:00", nil)
	require.NoError(t, err)
	second, err := h.AddAlarm("07:05", nil)
	require.NoError(t, err)

	h.ringAt(t, "07:00")
	h.kv.failGet(store.KeySettings, errors.New("disk busy"))
	assert.Error(t, h.Dismiss(first.ID))
	h.kv.failGet(store.KeySettings, nil)

	assert.Empty(t, h.sched.ActiveAlarmID())
	assert.True(t, h.sched.IsCheckingActive())

	h.ringAt(t, "07:05")
	assert.Equal(t, []string{first.ID, second.ID}, h.disp.fired)
}

func TestReloadExpiresMissedSnooze(t *testing.T) {
	h := newHarness(t)
	once, err := h.AddAlarm("07:00", nil)
	require.NoError(t, err)
	weekly, err := h.AddAlarm("07:01", []string{"Monday", "Tuesday"})
	require.NoError(t, err)

	h.ringAt(t, "07:00")
	_, err = h.Snooze(once.ID)
	require.NoError(t, err)
	h.ringAt(t, "07:01")
	_, err = h.Snooze(weekly.ID)
	require.NoError(t, err)

	// closed until after both snoozes came due
	require.NoError(t, h.Stop())
	h.ringAt(t, "08:00")
	require.NoError(t, h.Reload())

	stored, err := h.alarmsDB.Get(weekly.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSnoozed())
	assert.True(t, stored.Enabled)
	assert.Equal(t, "07:01", stored.Time)
	assert.Equal(t, []string{"Monday", "Tuesday"}, stored.Days)

	storedOnce, err := h.alarmsDB.Get(once.ID)
	require.NoError(t, err)
	assert.False(t, storedOnce.IsSnoozed())
	assert.False(t, storedOnce.Enabled, "missed one-time alarm is disabled")

	next, err := h.Next()
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "07:01", next.Time)
	assert.Equal(t, "Tomorrow", next.DayName)

	// Tuesday
	h.clock.Advance(23 * time.Hour)
	h.sched.Tick()
	h.clock.Advance(time.Minute)
	h.sched.Tick()
	assert.Equal(t, []string{once.ID, weekly.ID, weekly.ID}, h.disp.fired)
}

func TestReloadWhileRunningKeepsSnooze(t *testing.T) {
	h := newHarness(t)
	alarm, err := h.AddAlarm("07:00", nil)
	require.NoError(t, err)
	h.ringAt(t, "07:00")
	_, err = h.Snooze(alarm.ID)
	require.NoError(t, err)

	h.clock.Advance(10 * time.Minute)
	require.NoError(t, h.Reload())
	stored, err := h.alarmsDB.Get(alarm.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSnoozed())
}

func TestSnoozeUsesSettings(t *testing.T) {
	h := newHarness(t)
	settings := models.DefaultSettings()
	settings.SnoozeMinutes = 9
	require.NoError(t, h.UpdateSettings(settings))

	alarm, err := h.AddAlarm("07:00", nil)
	require.NoError(t, err)
	h.ringAt(t, "07:00")

	snoozed, err := h.Snooze(alarm.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, snoozed.Snooze.Minutes)
	assert.Equal(t, "07:09", snoozed.Snooze.UntilTime)
}

func TestDismissAndSnoozeRequireActiveAlarm(t *testing.T) {
	h := newHarness(t)
	alarm, err := h.AddAlarm("07:00", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, h.Dismiss(alarm.ID), ErrNotActive)
	_, err = h.Snooze(alarm.ID)
	assert.ErrorIs(t, err, ErrNotActive)

	records, err := h.history.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDismissDeletedAlarm(t *testing.T) {
	h := newHarness(t)
	alarm, err := h.AddAlarm("07:00", nil)
	require.NoError(t, err)
	h.ringAt(t, "07:00")

	require.NoError(t, h.DeleteAlarm(alarm.ID))
	require.NoError(t, h.Dismiss(alarm.ID))

	alarms, err := h.Alarms()
	require.NoError(t, err)
	assert.Empty(t, alarms)
}

func TestCRUD(t *testing.T) {
	h := newHarness(t)
	a, err := h.AddAlarm("08:15", []string{"sat", "Sunday"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sunday", "Saturday"}, a.Days)

	_, err = h.AddAlarm("25:00", nil)
	assert.Error(t, err)

	require.NoError(t, h.SetEnabled(a.ID, false))
	assert.Nil(t, must(h.Next()))
	assert.False(t, h.sched.Alarms()[0].Enabled)

	a.Time = "09:00"
	a.Enabled = true
	require.NoError(t, h.SaveAlarm(a))
	assert.Equal(t, "09:00", h.sched.Alarms()[0].Time)

	require.NoError(t, h.DeleteAlarm(a.ID))
	assert.ErrorIs(t, h.DeleteAlarm(a.ID), store.ErrNotFound)
	assert.ErrorIs(t, h.SetEnabled(a.ID, true), store.ErrNotFound)
	assert.Empty(t, h.sched.Alarms())
}

func TestDisableDropsSnooze(t *testing.T) {
	h := newHarness(t)
	alarm, err := h.AddAlarm("07:00", []string{"Monday"})
	require.NoError(t, err)
	h.ringAt(t, "07:00")
	_, err = h.Snooze(alarm.ID)
	require.NoError(t, err)

	require.NoError(t, h.SetEnabled(alarm.ID, false))
	stored, err := h.alarmsDB.Get(alarm.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSnoozed())
	assert.False(t, h.sched.Alarms()[0].IsSnoozed())
}

func TestImportExport(t *testing.T) {
	h := newHarness(t)
	_, err := h.AddAlarm("06:30", []string{"Monday", "Wednesday", "Friday"})
	require.NoError(t, err)
	_, err = h.AddAlarm("21:00", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, h.Export(&buf))

	other := newHarness(t)
	n, err := other.Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want, err := h.Alarms()
	require.NoError(t, err)
	got, err := other.Alarms()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Len(t, other.sched.Alarms(), 2)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
