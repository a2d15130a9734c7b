package calendar

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/borgmon/wakeup/pkg/daytime"
	"github.com/borgmon/wakeup/pkg/models"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidCalendar is returned when the input is not iCalendar data.
var ErrInvalidCalendar = errors.New("invalid calendar")

// Import reads VEVENTs from r and converts them to alarms. Events that
// cannot become an alarm are skipped and logged.
func Import(r io.Reader, now time.Time, log *zap.Logger) ([]models.Alarm, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	if err := validateICalFormat(string(body)); err != nil {
		return nil, err
	}

	decoder := ical.NewDecoder(strings.NewReader(string(body)))
	stats := &importStats{}
	seen := make(map[string]bool)
	var alarms []models.Alarm

	for {
		cal, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode calendar: %w: %w", ErrInvalidCalendar, err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			stats.events++

			alarm, err := parseEvent(comp, now)
			if err != nil {
				stats.skipped++
				log.Debug("skipping event", zap.Error(err))
				continue
			}
			if seen[alarm.ID] {
				stats.skipped++
				log.Debug("skipping duplicate event", zap.String("uid", alarm.ID))
				continue
			}
			seen[alarm.ID] = true
			alarms = append(alarms, alarm)
		}
	}

	log.Info("calendar imported",
		zap.Int("events", stats.events),
		zap.Int("alarms", len(alarms)),
		zap.Int("skipped", stats.skipped),
	)
	return alarms, nil
}

type importStats struct {
	events  int
	skipped int
}

func validateICalFormat(bodyStr string) error {
	// Check if response is HTML instead of iCalendar
	upperBody := strings.ToUpper(strings.TrimSpace(bodyStr))
	if strings.HasPrefix(upperBody, "<!DOCTYPE") || strings.HasPrefix(upperBody, "<HTML") {
		return fmt.Errorf("received HTML instead of iCalendar data: %w", ErrInvalidCalendar)
	}

	if !strings.HasPrefix(upperBody, "BEGIN:VCALENDAR") {
		preview := strings.TrimSpace(bodyStr)
		if len(preview) > 100 {
			preview = preview[:100]
		}
		return fmt.Errorf("expected BEGIN:VCALENDAR, got %q: %w", preview, ErrInvalidCalendar)
	}
	return nil
}

func parseEvent(comp *ical.Component, now time.Time) (models.Alarm, error) {
	alarm := models.Alarm{Enabled: true, CreatedAt: now.UnixMilli()}

	if uidProp := comp.Props.Get(ical.PropUID); uidProp != nil && uidProp.Value != "" {
		alarm.ID = uidProp.Value
	} else {
		alarm.ID = uuid.New().String()
	}

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return models.Alarm{}, fmt.Errorf("event %s: missing DTSTART", alarm.ID)
	}
	if isAllDay(startProp) {
		return models.Alarm{}, fmt.Errorf("event %s: all-day events have no alarm time", alarm.ID)
	}
	loc := resolveTimezone(startProp)
	start, err := parseDateTimeProperty(startProp, loc)
	if err != nil {
		return models.Alarm{}, fmt.Errorf("event %s: %w", alarm.ID, err)
	}
	alarm.Time = daytime.Clock(start)

	if rruleProp := comp.Props.Get(ical.PropRecurrenceRule); rruleProp != nil {
		// BYDAY is relative to the event's zone
		zoned := start.In(loc)
		days, err := daysFromRule(rruleProp.Value, zoned)
		if err != nil {
			return models.Alarm{}, fmt.Errorf("event %s: %w", alarm.ID, err)
		}
		days = shiftDays(days, dayShift(zoned, start))
		if alarm.Days, err = models.NormalizeDays(days); err != nil {
			return models.Alarm{}, fmt.Errorf("event %s: %w", alarm.ID, err)
		}
	} else if start.Before(now) {
		return models.Alarm{}, fmt.Errorf("event %s: one-time event already passed", alarm.ID)
	}

	if statusProp := comp.Props.Get(ical.PropStatus); statusProp != nil {
		alarm.Enabled = !strings.EqualFold(statusProp.Value, statusCancelled)
	}

	if v, err := comp.Props.Text(propSound); err == nil {
		alarm.SoundRef = v
	}
	if v, err := comp.Props.Text(propSoundLabel); err == nil {
		alarm.SoundLabel = v
	}
	if v, err := comp.Props.Text(propCreated); err == nil && v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			alarm.CreatedAt = ms
		}
	}

	return alarm, alarm.Validate()
}

func isAllDay(prop *ical.Prop) bool {
	return prop.ValueType() == ical.ValueDate || len(prop.Value) == len("20060102")
}

func parseDateTimeProperty(prop *ical.Prop, loc *time.Location) (time.Time, error) {
	// First try the standard DateTime method with the event timezone
	if t, err := prop.DateTime(loc); err == nil {
		return t.In(time.Local), nil
	}

	// If that fails, try parsing the raw value directly
	formats := []string{
		floatingFormat,        // Basic format: YYYYMMDDTHHMMSS
		"20060102T150405Z",    // UTC format
		time.RFC3339,          // Standard RFC3339
		"2006-01-02T15:04:05", // ISO 8601 without timezone
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, prop.Value, loc); err == nil {
			return t.In(time.Local), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse datetime value: %s", prop.Value)
}
