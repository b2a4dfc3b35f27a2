package main

import (
	"path/filepath"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/file"
	"code.sztanpet.net/zvpsz/tone-box/internal/tone"
)

// after this much inactivity the speaker falls back to the configured
// default frequency, so a box that was fiddled with and then forgotten
// comes back predictable
var extendedIdleDurr = 4 * time.Hour

type settings struct {
	Frequency int
}

func (a *app) settingsPath() string {
	return filepath.Join(a.cfg.StatePath, "settings")
}

func (a *app) loadSettings() {
	var s settings
	err := file.Unserialize(a.settingsPath(), &s)
	if err != nil {
		logger.Debugf("no saved settings: %v", err)
		return
	}

	if s.Frequency <= 0 {
		return
	}

	a.mu.Lock()
	a.frequency = s.Frequency
	a.mu.Unlock()
}

// persistSettingsLocked saves the current settings, callers hold a.mu
func (a *app) persistSettingsLocked() {
	err := file.Serialize(a.settingsPath(), settings{Frequency: a.frequency})
	if err != nil {
		logger.Warningf("persisting settings failed: %v", err)
	}
}

func (a *app) resetSettings() {
	a.mu.Lock()
	defer a.mu.Unlock()

	def := int(a.cfg.ToneFrequency)
	if a.frequency == def {
		return
	}
	if !a.playingSince.IsZero() {
		// never yank the frequency while it is audible
		return
	}

	t, err := tone.NewTable(int(a.cfg.SampleRate), def)
	if err != nil {
		return
	}
	if err := a.gen.Retune(t); err != nil {
		return
	}

	logger.Infof("extended idle, falling back to %v hz", def)
	a.frequency = def
	a.persistSettingsLocked()
	if a.state == toneView {
		a.refreshToneViewLocked()
	}
}
