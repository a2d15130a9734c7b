// Package scheduler polls the clock, decides when an alarm must ring and
// keeps the single active-alarm slot.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/borgmon/wakeup/pkg/daytime"
	"github.com/borgmon/wakeup/pkg/models"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultPeriod is how often the alarm list is checked.
const DefaultPeriod = time.Second

// Dispatcher performs the side effects of a ringing alarm.
type Dispatcher interface {
	// Fire starts the sound, haptic pulse and navigation for alarm.
	Fire(alarm models.Alarm, sound, vibration bool)
	// Silence stops whatever Fire started.
	Silence()
}

// Loop calls fn every period until stopped.
type Loop interface {
	Start(period time.Duration, fn func()) error
	Stop() error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPeriod overrides DefaultPeriod.
func WithPeriod(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.period = d
		}
	}
}

// StopOption configures StopAlarm.
type StopOption func(*stopConfig)

type stopConfig struct {
	resume bool
}

// WithoutResume leaves checking suspended after the alarm is dismissed.
// The next StartChecking resumes it.
func WithoutResume() StopOption {
	return func(c *stopConfig) { c.resume = false }
}

type observer struct {
	id int
	fn func(activeID string)
}

// Scheduler checks alarms against the clock once per period.
type Scheduler struct {
	clock      clockwork.Clock
	loop       Loop
	dispatcher Dispatcher
	log        *zap.Logger
	period     time.Duration

	// lifecycle serializes Loop.Start/Stop without holding mu, since a loop
	// may wait for a running Tick when stopped.
	lifecycle sync.Mutex

	mu            sync.Mutex
	alarms        []models.Alarm
	sound         bool
	vibration     bool
	running       bool
	suspended     bool
	activeID      string
	lastTick      time.Time
	lastTriggered string
	// snoozes applied here that the caller has not persisted or restored yet
	held map[string]models.Alarm

	primary   func(activeID string)
	observers []observer
	nextObsID int
}

// New creates a stopped scheduler.
func New(clock clockwork.Clock, loop Loop, dispatcher Dispatcher, log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:      clock,
		loop:       loop,
		dispatcher: dispatcher,
		log:        log,
		period:     DefaultPeriod,
		held:       make(map[string]models.Alarm),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartChecking replaces the alarm list and sound/vibration flags and starts
// the loop if it is not running yet. Calling it while running only refreshes
// the data.
func (s *Scheduler) StartChecking(alarms []models.Alarm, soundEnabled, vibrationEnabled bool) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	s.alarms = s.mergeHeld(models.CloneAll(alarms))
	s.sound = soundEnabled
	s.vibration = vibrationEnabled
	s.suspended = s.activeID != ""
	if s.running {
		s.mu.Unlock()
		s.log.Debug("alarm list refreshed", zap.Int("alarms", len(alarms)))
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if err := s.loop.Start(s.period, s.Tick); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("start alarm checks: %w", err)
	}
	s.log.Info("alarm checking started", zap.Int("alarms", len(alarms)), zap.Duration("period", s.period))
	return nil
}

// mergeHeld keeps snoozes applied by SnoozeAlarm on alarms the caller pushes
// back unsnoozed. A pushed snooze replaces the held one.
func (s *Scheduler) mergeHeld(alarms []models.Alarm) []models.Alarm {
	present := make(map[string]bool, len(alarms))
	for i, a := range alarms {
		present[a.ID] = true
		held, ok := s.held[a.ID]
		if !ok {
			continue
		}
		if a.IsSnoozed() {
			delete(s.held, a.ID)
			continue
		}
		alarms[i].Snooze = held.Clone().Snooze
	}
	for id := range s.held {
		if !present[id] {
			delete(s.held, id)
		}
	}
	return alarms
}

// StopChecking stops the loop. It is safe to call when not running.
func (s *Scheduler) StopChecking() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.suspended = false
	s.lastTick = time.Time{}
	s.mu.Unlock()

	if err := s.loop.Stop(); err != nil {
		return fmt.Errorf("stop alarm checks: %w", err)
	}
	s.log.Info("alarm checking stopped")
	return nil
}

// Tick runs one check. The loop calls it every period.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	if !s.running || s.suspended || s.activeID != "" {
		s.mu.Unlock()
		return
	}

	now := s.clock.Now()
	prev := s.lastTick
	if prev.IsZero() {
		prev = now.Add(-s.period)
	}
	s.lastTick = now

	if len(s.alarms) == 0 {
		s.mu.Unlock()
		return
	}

	current := daytime.Clock(now)
	if s.lastTriggered != "" && s.lastTriggered != current {
		s.lastTriggered = ""
	}

	alarm, ok := s.due(prev, now, current, daytime.DayName(now))
	if !ok {
		s.mu.Unlock()
		return
	}
	if !alarm.IsSnoozed() {
		s.lastTriggered = current
	}
	s.activeID = alarm.ID
	s.suspended = true
	sound, vibration := s.sound, s.vibration
	notify := s.observersLocked()
	s.mu.Unlock()

	s.log.Info("alarm triggered",
		zap.String("id", alarm.ID),
		zap.String("time", current),
		zap.Bool("snoozed", alarm.IsSnoozed()),
	)
	s.dispatcher.Fire(alarm, sound, vibration)
	notify(alarm.ID)
}

// due returns the alarm that must ring now. Snoozed alarms win over normal
// ones and fire when their re-fire instant falls in (prev, now].
func (s *Scheduler) due(prev, now time.Time, current, day string) (models.Alarm, bool) {
	for _, a := range s.alarms {
		if !a.Enabled {
			continue
		}
		at, snoozed := a.SnoozeAt()
		if snoozed && at.After(prev) && !at.After(now) {
			return a.Clone(), true
		}
	}

	if s.lastTriggered == current {
		return models.Alarm{}, false
	}
	for _, a := range s.alarms {
		if a.Enabled && !a.IsSnoozed() && a.Time == current && a.RunsOn(day) {
			return a.Clone(), true
		}
	}
	return models.Alarm{}, false
}

// StopAlarm dismisses the active alarm and resumes checking. It does nothing
// and returns false if id is not the active alarm.
func (s *Scheduler) StopAlarm(id string, opts ...StopOption) bool {
	cfg := stopConfig{resume: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	if s.activeID == "" || s.activeID != id {
		active := s.activeID
		s.mu.Unlock()
		s.log.Warn("stop ignored, alarm not active", zap.String("id", id), zap.String("active", active))
		return false
	}
	s.activeID = ""
	s.suspended = !cfg.resume
	notify := s.observersLocked()
	s.mu.Unlock()

	s.log.Info("alarm dismissed", zap.String("id", id), zap.Bool("resume", cfg.resume))
	s.dispatcher.Silence()
	notify("")
	return true
}

// Resume lifts a suspension left by StopAlarm with WithoutResume, keeping
// the current alarm list. It does nothing while an alarm is ringing.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		s.suspended = false
	}
}

// Running reports whether the loop is started, ringing or not.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Period returns the check interval.
func (s *Scheduler) Period() time.Duration {
	return s.period
}

// ActiveAlarmID returns the ringing alarm's ID, or "".
func (s *Scheduler) ActiveAlarmID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// IsCheckingActive reports whether ticks are currently evaluated.
func (s *Scheduler) IsCheckingActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.suspended && s.activeID == ""
}

// Alarms returns a copy of the held alarm list, including pending snoozes.
func (s *Scheduler) Alarms() []models.Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneAll(s.alarms)
}

// SetOnActiveAlarmChange sets the primary observer of the active slot. It is
// called with "" when the slot is vacated. Pass nil to clear it.
func (s *Scheduler) SetOnActiveAlarmChange(fn func(activeID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.primary = fn
}

// Subscribe adds an observer of the active slot and returns a function that
// removes it.
func (s *Scheduler) Subscribe(fn func(activeID string)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observer{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, o := range s.observers {
				if o.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// observersLocked snapshots the observers so they can be called without mu.
func (s *Scheduler) observersLocked() func(activeID string) {
	fns := make([]func(string), 0, len(s.observers)+1)
	if s.primary != nil {
		fns = append(fns, s.primary)
	}
	for _, o := range s.observers {
		fns = append(fns, o.fn)
	}
	return func(activeID string) {
		for _, fn := range fns {
			fn(activeID)
		}
	}
}
