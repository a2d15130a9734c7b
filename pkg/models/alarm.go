package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/borgmon/wakeup/pkg/daytime"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Alarm is a user configured wake-up alarm
type Alarm struct {
	ID         string   `json:"id"`                   // Unique identifier (UUID), immutable
	Time       string   `json:"time"`                 // Nominal firing time, 24-hour HH:MM
	Enabled    bool     `json:"enabled"`              // Disabled alarms are never checked
	Days       []string `json:"days"`                 // Weekday names; empty = one-time alarm
	SoundRef   string   `json:"soundRef,omitempty"`   // Path of a user supplied WAV file
	SoundLabel string   `json:"soundLabel,omitempty"` // Display name of the sound
	Snooze     *Snooze  `json:"snooze,omitempty"`     // Pending re-fire, nil for a normal alarm
	CreatedAt  int64    `json:"createdAt"`            // Creation time in epoch milliseconds
}

// Snooze holds everything a snoozed alarm needs to re-fire and to be restored.
// An alarm either carries all of it or none of it.
type Snooze struct {
	OriginalTime string   `json:"originalTime"` // Time before the first snooze
	OriginalDays []string `json:"originalDays"` // Days before the first snooze
	Minutes      int      `json:"minutes"`      // Requested snooze duration
	UntilTime    string   `json:"untilTime"`    // HH:MM of Timestamp, for display
	Timestamp    int64    `json:"timestamp"`    // Re-fire instant in epoch milliseconds
}

// NewAlarm creates an enabled alarm with a fresh ID. hhmm may be any form
// daytime.NormalizeClock accepts.
func NewAlarm(hhmm string, days []string, now time.Time) (Alarm, error) {
	hhmm, err := daytime.NormalizeClock(hhmm)
	if err != nil {
		return Alarm{}, err
	}
	normalized, err := NormalizeDays(days)
	if err != nil {
		return Alarm{}, err
	}
	return Alarm{
		ID:        uuid.New().String(),
		Time:      hhmm,
		Enabled:   true,
		Days:      normalized,
		CreatedAt: now.UnixMilli(),
	}, nil
}

// NormalizeDays maps day names and abbreviations to canonical names, drops
// duplicates and orders them Sunday first.
func NormalizeDays(days []string) ([]string, error) {
	seen := make(map[string]bool)
	for _, d := range days {
		name, ok := daytime.NormalizeDay(d)
		if !ok {
			return nil, fmt.Errorf("unknown day %q", d)
		}
		seen[name] = true
	}
	return lo.Filter(daytime.Weekdays, func(day string, _ int) bool {
		return seen[day]
	}), nil
}

// IsSnoozed reports whether a re-fire is pending.
func (a Alarm) IsSnoozed() bool {
	return a.Snooze != nil
}

// IsOneTime reports whether the alarm has no repeat days.
func (a Alarm) IsOneTime() bool {
	return len(a.Days) == 0
}

// RunsOn reports whether a normal alarm is scheduled for the given weekday.
// One-time alarms run on any day.
func (a Alarm) RunsOn(dayName string) bool {
	return a.IsOneTime() || lo.Contains(a.Days, dayName)
}

// SnoozeAt returns the re-fire instant of a snoozed alarm.
func (a Alarm) SnoozeAt() (time.Time, bool) {
	if a.Snooze == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(a.Snooze.Timestamp), true
}

// Snoozed returns a copy of the alarm that re-fires at until. Originals from a
// previous snooze are kept so that restoring always returns to the permanent
// schedule.
func (a Alarm) Snoozed(minutes int, until time.Time) Alarm {
	originalTime, originalDays := a.Time, slices.Clone(a.Days)
	if a.Snooze != nil {
		originalTime, originalDays = a.Snooze.OriginalTime, slices.Clone(a.Snooze.OriginalDays)
	}

	out := a.Clone()
	out.Snooze = &Snooze{
		OriginalTime: originalTime,
		OriginalDays: originalDays,
		Minutes:      minutes,
		UntilTime:    daytime.Clock(until),
		Timestamp:    until.UnixMilli(),
	}
	return out
}

// Restored returns the alarm with its pre-snooze time and days and no snooze.
// The second value is false if the alarm was not snoozed.
func (a Alarm) Restored() (Alarm, bool) {
	if a.Snooze == nil {
		return a, false
	}
	out := a.Clone()
	out.Time = a.Snooze.OriginalTime
	out.Days = slices.Clone(a.Snooze.OriginalDays)
	out.Snooze = nil
	return out, true
}

// Clone returns a deep copy.
func (a Alarm) Clone() Alarm {
	out := a
	out.Days = slices.Clone(a.Days)
	if a.Snooze != nil {
		s := *a.Snooze
		s.OriginalDays = slices.Clone(a.Snooze.OriginalDays)
		out.Snooze = &s
	}
	return out
}

// Validate checks the alarm fields that the scheduler relies on.
func (a Alarm) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("alarm ID is required")
	}
	canonical, err := daytime.NormalizeClock(a.Time)
	if err != nil {
		return fmt.Errorf("alarm %s: %w", a.ID, err)
	}
	if canonical != a.Time {
		return fmt.Errorf("alarm %s: time %q must be written as %q", a.ID, a.Time, canonical)
	}
	for _, d := range a.Days {
		if !lo.Contains(daytime.Weekdays, d) {
			return fmt.Errorf("alarm %s: unknown day %q", a.ID, d)
		}
	}
	return nil
}

// CloneAll deep copies a list of alarms.
func CloneAll(alarms []Alarm) []Alarm {
	return lo.Map(alarms, func(a Alarm, _ int) Alarm { return a.Clone() })
}
