package store

import (
	"fyne.io/fyne/v2"
)

// Prefs keeps values in the Fyne application preferences.
type Prefs struct {
	prefs fyne.Preferences
}

// NewPrefs creates a backend over the preferences of app.
func NewPrefs(app fyne.App) *Prefs {
	return &Prefs{prefs: app.Preferences()}
}

func (p *Prefs) Get(key string) (string, error) {
	// Preferences cannot tell an empty string from a missing key; values
	// written by this package are never empty JSON.
	v := p.prefs.String(key)
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

func (p *Prefs) Set(key, value string) error {
	p.prefs.SetString(key, value)
	return nil
}

func (p *Prefs) Delete(key string) error {
	p.prefs.RemoveValue(key)
	return nil
}
