// Package daytime converts instants into the wall-clock strings alarms are
// configured with: 24-hour "HH:MM" times, weekday names and date keys.
package daytime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"

	MinutesPerDay = 24 * 60
)

// Weekdays lists the day names alarms use, indexed by time.Weekday.
var Weekdays = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// Clock returns the local "HH:MM" of t.
func Clock(t time.Time) string {
	return t.Format(clockLayout)
}

// DayName returns the weekday name of t, e.g. "Monday".
func DayName(t time.Time) string {
	return Weekdays[t.Weekday()]
}

// DateKey returns t as "YYYY-MM-DD".
func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses a "YYYY-MM-DD" key as midnight in loc.
func ParseDate(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, key, loc)
}

// ParseClock splits a 24-hour "HH:MM" string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// NormalizeClock returns s as zero-padded 24-hour "HH:MM". It accepts
// "7:05", "07:05" and 12-hour input such as "7:05 am".
func NormalizeClock(s string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		return From12Hour(s)
	}
	h, m, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// MinuteOfDay returns minutes since midnight for an "HH:MM" string.
func MinuteOfDay(s string) (int, error) {
	h, m, err := ParseClock(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// FromMinuteOfDay formats minutes since midnight as "HH:MM", wrapping at 24h.
func FromMinuteOfDay(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// On returns the instant at which "HH:MM" occurs on the calendar day of t.
func On(t time.Time, hhmm string) (time.Time, error) {
	h, m, err := ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), h, m, 0, 0, t.Location()), nil
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// To12Hour converts "HH:MM" to "H:MM AM/PM". Invalid input is returned as is.
func To12Hour(hhmm string) string {
	h, m, err := ParseClock(hhmm)
	if err != nil {
		return hhmm
	}
	return format12(h, m)
}

func format12(h, m int) string {
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, suffix)
}

// From12Hour converts "H:MM AM/PM" back to 24-hour "HH:MM".
func From12Hour(s string) (string, error) {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(s)))
	if len(fields) != 2 || (fields[1] != "AM" && fields[1] != "PM") {
		return "", fmt.Errorf("invalid 12-hour time %q", s)
	}
	parts := strings.Split(fields[0], ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid 12-hour time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 1 || h > 12 {
		return "", fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return "", fmt.Errorf("invalid minute in %q", s)
	}
	h %= 12
	if fields[1] == "PM" {
		h += 12
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// DayIndex returns the time.Weekday for a day name. Matching is case
// insensitive and accepts three-letter abbreviations.
func DayIndex(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 3 {
		return 0, false
	}
	for i, day := range Weekdays {
		lower := strings.ToLower(day)
		if name == lower || name == lower[:3] {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// NormalizeDay returns the canonical name for a day, e.g. "mon" -> "Monday".
func NormalizeDay(name string) (string, bool) {
	idx, ok := DayIndex(name)
	if !ok {
		return "", false
	}
	return Weekdays[idx], true
}
