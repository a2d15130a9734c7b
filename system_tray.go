package main

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"github.com/borgmon/wakeup/pkg/engine"
	"github.com/borgmon/wakeup/pkg/models"
	"github.com/borgmon/wakeup/pkg/nextalarm"
	"go.uber.org/zap"
)

func (w *Wakeup) setupSystemTray() {
	w.updateSystemTrayMenu()
}

func (w *Wakeup) updateSystemTrayMenu() {
	desk, ok := w.app.(desktop.App)
	if !ok {
		return
	}

	settings, err := w.engine.Settings()
	if err != nil {
		w.log.Warn("loading settings for tray failed", zap.Error(err))
		settings = models.DefaultSettings()
	}

	menuItems := []*fyne.MenuItem{}

	if id := w.sched.ActiveAlarmID(); id != "" {
		ringing := disabledItem("Alarm ringing")
		menuItems = append(menuItems,
			ringing,
			fyne.NewMenuItem("Dismiss", func() { w.dismiss(id) }),
			fyne.NewMenuItem(fmt.Sprintf("Snooze %d min", settings.SnoozeMinutes), func() { w.snooze(id) }),
			fyne.NewMenuItemSeparator(),
		)
	}

	next, err := w.engine.Next()
	if err != nil {
		w.log.Warn("computing next alarm failed", zap.Error(err))
	}
	menuItems = append(menuItems,
		disabledItem(nextLabel(next, settings.Use24Hour)),
		disabledItem(w.tracker.Summary()),
		fyne.NewMenuItemSeparator(),
	)

	menuItems = append(menuItems,
		toggleItem("Sound", settings.SoundEnabled, func() {
			settings.SoundEnabled = !settings.SoundEnabled
			w.saveSettings(settings)
		}),
		toggleItem("Vibration", settings.VibrationEnabled, func() {
			settings.VibrationEnabled = !settings.VibrationEnabled
			w.saveSettings(settings)
		}),
		toggleItem("24-hour clock", settings.Use24Hour, func() {
			settings.Use24Hour = !settings.Use24Hour
			w.saveSettings(settings)
		}),
		toggleItem("Start at login", settings.AutoStart, func() {
			settings.AutoStart = !settings.AutoStart
			if err := setupAutostart(settings.AutoStart, w.log); err != nil {
				w.log.Warn("failed to setup autostart", zap.Error(err))
				return
			}
			w.saveSettings(settings)
		}),
	)

	menuItems = append(menuItems, fyne.NewMenuItemSeparator())
	menuItems = append(menuItems, fyne.NewMenuItem("Quit", func() {
		w.quit()
	}))

	menu := fyne.NewMenu("Wakeup", menuItems...)
	desk.SetSystemTrayMenu(menu)
	desk.SetSystemTrayIcon(theme.HistoryIcon())
}

func (w *Wakeup) dismiss(id string) {
	if err := w.engine.Dismiss(id); err != nil && !errors.Is(err, engine.ErrNotActive) {
		w.log.Error("dismiss failed", zap.String("id", id), zap.Error(err))
	}
	w.updateSystemTrayMenu()
}

func (w *Wakeup) snooze(id string) {
	if _, err := w.engine.Snooze(id); err != nil && !errors.Is(err, engine.ErrNotActive) {
		w.log.Error("snooze failed", zap.String("id", id), zap.Error(err))
	}
	w.updateSystemTrayMenu()
}

func (w *Wakeup) saveSettings(settings models.Settings) {
	if err := w.engine.UpdateSettings(settings); err != nil {
		w.log.Error("saving settings failed", zap.Error(err))
	}
	w.updateSystemTrayMenu()
}

// nextLabel describes the next alarm for the tray.
func nextLabel(next *nextalarm.Result, use24 bool) string {
	if next == nil {
		return "No alarms set"
	}
	return fmt.Sprintf("Next: %s %s (%s)", next.DayName, nextalarm.FormatTime(next.Time, use24), next.TimeRemaining)
}

func disabledItem(label string) *fyne.MenuItem {
	item := fyne.NewMenuItem(label, nil)
	item.Disabled = true
	return item
}

func toggleItem(label string, checked bool, action func()) *fyne.MenuItem {
	item := fyne.NewMenuItem(label, action)
	item.Checked = checked
	return item
}
