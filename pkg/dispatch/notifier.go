package dispatch

import (
	"fmt"

	"fyne.io/fyne/v2"
	"github.com/borgmon/wakeup/pkg/models"
)

// Notifier shows a ringing alarm as a desktop notification and brings the
// app to the front.
type Notifier struct {
	app      fyne.App
	activate func()
}

// NewNotifier creates a Notifier. activate may be nil.
func NewNotifier(app fyne.App, activate func()) *Notifier {
	return &Notifier{app: app, activate: activate}
}

// ShowAlarm implements Navigator.
func (n *Notifier) ShowAlarm(alarm models.Alarm) error {
	if n.app == nil {
		return fmt.Errorf("show alarm %s: no app", alarm.ID)
	}
	n.app.SendNotification(fyne.NewNotification("Alarm", notificationText(alarm)))
	if n.activate != nil {
		n.activate()
	}
	return nil
}

func notificationText(alarm models.Alarm) string {
	label := alarm.Time
	if alarm.Snooze != nil {
		label = fmt.Sprintf("%s (snoozed %d min)", alarm.Time, alarm.Snooze.Minutes)
	}
	if alarm.SoundLabel != "" {
		return fmt.Sprintf("Wake up! %s · %s", label, alarm.SoundLabel)
	}
	return "Wake up! " + label
}
