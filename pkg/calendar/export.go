// Package calendar converts alarm schedules to and from iCalendar data.
package calendar

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/borgmon/wakeup/pkg/models"
	"github.com/borgmon/wakeup/pkg/nextalarm"
	"github.com/emersion/go-ical"
)

const (
	productID = "-//borgmon//wakeup//EN"

	// floating local time, no TZID
	floatingFormat = "20060102T150405"

	propSound      = "X-WAKEUP-SOUND"
	propSoundLabel = "X-WAKEUP-SOUND-LABEL"
	propCreated    = "X-WAKEUP-CREATED"

	statusCancelled = "CANCELLED"
	statusConfirmed = "CONFIRMED"
)

// Export writes one VEVENT per alarm to w. Snoozed alarms are exported with
// their permanent schedule.
func Export(w io.Writer, alarms []models.Alarm, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, a := range alarms {
		event, err := alarmEvent(a, now)
		if err != nil {
			return err
		}
		cal.Children = append(cal.Children, event)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func alarmEvent(a models.Alarm, now time.Time) (*ical.Component, error) {
	if restored, ok := a.Restored(); ok {
		a = restored
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	// next occurrence regardless of the enabled flag
	enabled := a.Clone()
	enabled.Enabled = true
	next := nextalarm.Next([]models.Alarm{enabled}, now)
	if next == nil {
		return nil, fmt.Errorf("alarm %s: no occurrence", a.ID)
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, a.ID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetText(ical.PropSummary, summary(a))

	start := ical.NewProp(ical.PropDateTimeStart)
	start.Value = next.At.Format(floatingFormat)
	event.Props.Set(start)

	if rule := recurrenceRule(a.Days); rule != "" {
		rrule := ical.NewProp(ical.PropRecurrenceRule)
		rrule.Value = rule
		event.Props.Set(rrule)
	}

	status := statusConfirmed
	if !a.Enabled {
		status = statusCancelled
	}
	event.Props.SetText(ical.PropStatus, status)

	if a.SoundRef != "" {
		event.Props.SetText(propSound, a.SoundRef)
	}
	if a.SoundLabel != "" {
		event.Props.SetText(propSoundLabel, a.SoundLabel)
	}
	if a.CreatedAt != 0 {
		event.Props.SetText(propCreated, strconv.FormatInt(a.CreatedAt, 10))
	}

	valarm := ical.NewComponent(ical.CompAlarm)
	valarm.Props.SetText(ical.PropAction, "AUDIO")
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = "PT0S"
	valarm.Props.Set(trigger)
	event.Children = append(event.Children, valarm)

	return event.Component, nil
}

func summary(a models.Alarm) string {
	if a.SoundLabel != "" {
		return fmt.Sprintf("Alarm %s (%s)", a.Time, a.SoundLabel)
	}
	return "Alarm " + a.Time
}
