// Package nextalarm finds the chronologically nearest firing of a set of
// alarms and describes how far away it is.
package nextalarm

import (
	"fmt"
	"math"
	"time"

	"github.com/borgmon/wakeup/pkg/daytime"
	"github.com/borgmon/wakeup/pkg/models"
	"github.com/samber/lo"
)

// Result describes the next alarm to fire
type Result struct {
	AlarmID       string
	Time          string    // HH:MM the alarm will ring at
	DayName       string    // "Today", "Tomorrow" or a weekday name
	TimeRemaining string    // e.g. "In 3h 20m"
	At            time.Time // absolute firing instant
}

type candidate struct {
	alarm   models.Alarm
	at      time.Time
	hhmm    string
	minutes int
}

// Next returns the nearest future firing among the enabled alarms, or nil
// when none are enabled. Ties go to the first candidate scanned.
func Next(alarms []models.Alarm, now time.Time) *Result {
	enabled := lo.Filter(alarms, func(a models.Alarm, _ int) bool { return a.Enabled })
	if len(enabled) == 0 {
		return nil
	}

	var best *candidate
	for _, a := range enabled {
		for _, c := range candidates(a, now) {
			if c.minutes < 0 {
				continue
			}
			if best == nil || c.minutes < best.minutes {
				best = &c
			}
		}
	}
	if best == nil {
		return nil
	}

	return &Result{
		AlarmID:       best.alarm.ID,
		Time:          best.hhmm,
		DayName:       dayLabel(now, best.at),
		TimeRemaining: FormatRemaining(best.minutes),
		At:            best.at,
	}
}

func candidates(a models.Alarm, now time.Time) []candidate {
	if at, ok := a.SnoozeAt(); ok && at.After(now) {
		at = at.In(now.Location())
		return []candidate{{alarm: a, at: at, hhmm: a.Snooze.UntilTime, minutes: minutesUntil(now, at)}}
	}

	today, err := daytime.On(now, a.Time)
	if err != nil {
		return nil
	}
	passed := !today.After(now)

	if a.IsOneTime() {
		at := today
		if passed {
			at = today.AddDate(0, 0, 1)
		}
		return []candidate{{alarm: a, at: at, hhmm: a.Time, minutes: minutesUntil(now, at)}}
	}

	out := make([]candidate, 0, len(a.Days))
	for _, day := range a.Days {
		idx, ok := daytime.DayIndex(day)
		if !ok {
			continue
		}
		offset := (int(idx) - int(now.Weekday()) + 7) % 7
		if offset == 0 && passed {
			offset = 7
		}
		at := today.AddDate(0, 0, offset)
		out = append(out, candidate{alarm: a, at: at, hhmm: a.Time, minutes: minutesUntil(now, at)})
	}
	return out
}

// minutesUntil rounds partial minutes up so that an alarm 30 seconds away is
// reported as one minute away rather than "Now".
func minutesUntil(now, at time.Time) int {
	return int(math.Ceil(at.Sub(now).Minutes()))
}

func dayLabel(now, at time.Time) string {
	days := int(daytime.StartOfDay(at).Sub(daytime.StartOfDay(now)).Hours()+12) / 24
	switch days {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return daytime.DayName(at)
	}
}

// FormatRemaining renders a minute count as "In Xm", "In Xh Ym" or "In Xd Yh".
func FormatRemaining(minutes int) string {
	switch {
	case minutes <= 0:
		return "Now"
	case minutes < 60:
		return fmt.Sprintf("In %dm", minutes)
	case minutes < daytime.MinutesPerDay:
		h, m := minutes/60, minutes%60
		if m == 0 {
			return fmt.Sprintf("In %dh", h)
		}
		return fmt.Sprintf("In %dh %dm", h, m)
	default:
		d, h := minutes/daytime.MinutesPerDay, (minutes%daytime.MinutesPerDay)/60
		if h == 0 {
			return fmt.Sprintf("In %dd", d)
		}
		return fmt.Sprintf("In %dd %dh", d, h)
	}
}

// FormatTime renders an "HH:MM" alarm time for display.
func FormatTime(hhmm string, use24Hour bool) string {
	if use24Hour {
		return hhmm
	}
	return daytime.To12Hour(hhmm)
}
