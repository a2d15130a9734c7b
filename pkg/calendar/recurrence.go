package calendar

import (
	"fmt"
	"time"

	"github.com/borgmon/wakeup/pkg/daytime"
	"github.com/teambition/rrule-go"
)

// indexed by time.Weekday
var rruleWeekdays = []rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// recurrenceRule returns the RRULE value for days, or "" for a one-time alarm.
func recurrenceRule(days []string) string {
	if len(days) == 0 {
		return ""
	}
	if len(days) == len(daytime.Weekdays) {
		return (&rrule.ROption{Freq: rrule.DAILY}).RRuleString()
	}

	opt := rrule.ROption{Freq: rrule.WEEKLY}
	for _, d := range days {
		if wd, ok := daytime.DayIndex(d); ok {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[wd])
		}
	}
	return opt.RRuleString()
}

// daysFromRule maps a DAILY or WEEKLY rule to weekday names. A weekly rule
// without BYDAY repeats on the weekday of start.
func daysFromRule(value string, start time.Time) ([]string, error) {
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE %q: %w", value, err)
	}
	if opt.Interval > 1 {
		return nil, fmt.Errorf("RRULE %q: intervals are not supported", value)
	}

	switch opt.Freq {
	case rrule.DAILY:
		return append([]string(nil), daytime.Weekdays...), nil
	case rrule.WEEKLY:
		if len(opt.Byweekday) == 0 {
			return []string{daytime.DayName(start)}, nil
		}
		days := make([]string, 0, len(opt.Byweekday))
		for _, wd := range opt.Byweekday {
			// rrule counts Monday as 0
			days = append(days, daytime.Weekdays[(wd.Day()+1)%7])
		}
		return days, nil
	default:
		return nil, fmt.Errorf("RRULE %q: only DAILY and WEEKLY are supported", value)
	}
}

// dayShift returns how many calendar days the date of to lies after the date
// of from, ignoring the time of day.
func dayShift(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	diff := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).Sub(time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC))
	return int(diff.Hours() / 24)
}

// shiftDays moves each weekday by shift days, wrapping around the week.
func shiftDays(days []string, shift int) []string {
	if shift%7 == 0 {
		return days
	}
	out := make([]string, 0, len(days))
	for _, d := range days {
		wd, ok := daytime.DayIndex(d)
		if !ok {
			out = append(out, d)
			continue
		}
		out = append(out, daytime.Weekdays[((int(wd)+shift)%7+7)%7])
	}
	return out
}
