// Package dispatch performs the side effects of a ringing alarm: sound,
// haptic pulse and bringing the alarm in front of the user.
package dispatch

import (
	"github.com/borgmon/wakeup/pkg/models"
	"go.uber.org/zap"
)

// SoundPlayer loops an alarm sound. An empty ref selects the default tone.
type SoundPlayer interface {
	Play(ref string) error
	Stop() error
}

// Haptics issues one discrete pulse.
type Haptics interface {
	Pulse() error
}

// Navigator presents a ringing alarm to the user.
type Navigator interface {
	ShowAlarm(alarm models.Alarm) error
}

// Dispatcher fans a firing out to its ports. Port failures are logged and
// never returned, so a silent alarm still reaches the user.
type Dispatcher struct {
	sound   SoundPlayer
	haptics Haptics
	nav     Navigator
	log     *zap.Logger
}

// New creates a Dispatcher. Any port may be nil.
func New(sound SoundPlayer, haptics Haptics, nav Navigator, log *zap.Logger) *Dispatcher {
	return &Dispatcher{sound: sound, haptics: haptics, nav: nav, log: log}
}

// Fire starts the side effects for alarm.
func (d *Dispatcher) Fire(alarm models.Alarm, sound, vibration bool) {
	log := d.log.With(zap.String("alarm", alarm.ID))

	if sound && d.sound != nil {
		if err := d.sound.Play(alarm.SoundRef); err != nil {
			log.Warn("alarm sound failed", zap.String("sound", alarm.SoundRef), zap.Error(err))
		}
	}
	if vibration && d.haptics != nil {
		if err := d.haptics.Pulse(); err != nil {
			log.Warn("haptic pulse failed", zap.Error(err))
		}
	}
	if d.nav != nil {
		if err := d.nav.ShowAlarm(alarm); err != nil {
			log.Warn("showing alarm failed", zap.Error(err))
		}
	}
}

// Silence stops the alarm sound.
func (d *Dispatcher) Silence() {
	if d.sound == nil {
		return
	}
	if err := d.sound.Stop(); err != nil {
		d.log.Warn("stopping alarm sound failed", zap.Error(err))
	}
}
