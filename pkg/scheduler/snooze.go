package scheduler

import (
	"time"

	"github.com/borgmon/wakeup/pkg/models"
	"go.uber.org/zap"
)

// SnoozeAlarm reschedules the active alarm minutes from now, vacates the
// active slot and resumes checking. The returned alarm carries the snooze and
// should be persisted by the caller. It returns nil if id is not the active
// alarm or minutes is not positive.
func (s *Scheduler) SnoozeAlarm(id string, minutes int) *models.Alarm {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if minutes <= 0 || s.activeID == "" || s.activeID != id {
		active := s.activeID
		s.mu.Unlock()
		s.log.Warn("snooze ignored",
			zap.String("id", id),
			zap.String("active", active),
			zap.Int("minutes", minutes),
		)
		return nil
	}

	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		s.log.Warn("snooze ignored, alarm no longer scheduled", zap.String("id", id))
		return nil
	}

	until := s.clock.Now().Add(time.Duration(minutes) * time.Minute)
	snoozed := s.alarms[idx].Snoozed(minutes, until)
	s.alarms[idx] = snoozed
	s.held[id] = snoozed.Clone()
	s.activeID = ""
	s.suspended = false
	start := !s.running
	s.running = true
	notify := s.observersLocked()
	s.mu.Unlock()

	if start {
		if err := s.loop.Start(s.period, s.Tick); err != nil {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			s.log.Error("re-arming alarm checks failed", zap.Error(err))
		}
	}

	s.log.Info("alarm snoozed",
		zap.String("id", id),
		zap.Int("minutes", minutes),
		zap.String("until", snoozed.Snooze.UntilTime),
	)
	s.dispatcher.Silence()
	notify("")

	out := snoozed.Clone()
	return &out
}

// RestoreOriginalAlarm puts a snoozed alarm back on its permanent time and
// days. It returns nil if the alarm is unknown or not snoozed.
func (s *Scheduler) RestoreOriginalAlarm(id string) *models.Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}
	restored, ok := s.alarms[idx].Restored()
	if !ok {
		return nil
	}
	s.alarms[idx] = restored
	delete(s.held, id)
	s.log.Debug("alarm restored", zap.String("id", id), zap.String("time", restored.Time))

	out := restored.Clone()
	return &out
}

func (s *Scheduler) indexLocked(id string) int {
	for i, a := range s.alarms {
		if a.ID == id {
			return i
		}
	}
	return -1
}
