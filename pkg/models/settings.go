package models

const (
	DefaultSnoozeMinutes  = 5
	DefaultQuotesRequired = 3
)

// Settings holds process wide user preferences
type Settings struct {
	SoundEnabled     bool `json:"soundEnabled"`
	VibrationEnabled bool `json:"vibrationEnabled"`
	SnoozeMinutes    int  `json:"snoozeMinutes"`  // applied when the user snoozes
	QuotesRequired   int  `json:"quotesRequired"` // dismissal steps, used by presentation only
	Use24Hour        bool `json:"use24Hour"`
	AutoStart        bool `json:"autoStart"`
}

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		SoundEnabled:     true,
		VibrationEnabled: true,
		SnoozeMinutes:    DefaultSnoozeMinutes,
		QuotesRequired:   DefaultQuotesRequired,
		Use24Hour:        true,
	}
}

// Normalize replaces out of range values with defaults.
func (s Settings) Normalize() Settings {
	if s.SnoozeMinutes <= 0 {
		s.SnoozeMinutes = DefaultSnoozeMinutes
	}
	if s.QuotesRequired < 0 {
		s.QuotesRequired = DefaultQuotesRequired
	}
	return s
}
