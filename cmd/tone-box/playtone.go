package main

import (
	"fmt"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/input"
	"code.sztanpet.net/zvpsz/tone-box/internal/playlog"
	"code.sztanpet.net/zvpsz/tone-box/internal/tone"
)

// arrow keys move the frequency this many hz
const frequencyStep = 10

func (a *app) handleToneView(r rune) {
	switch r {
	case input.KeyEscape:
		logger.Debugf("State: toneView -> freqEntry (escape pressed)")
		a.enterFreqEntry()
	case input.KeyArrowUp:
		logger.Debugf("State: toneView -> infoPrint (up pressed)")
		a.enterInfoPrint()

	case input.KeySpace, input.KeyEnter:
		a.togglePlay("tty")
	case input.KeyArrowLeft:
		a.nudgeFrequency(-frequencyStep)
	case input.KeyArrowRight:
		a.nudgeFrequency(frequencyStep)

	default:
		logger.Debugf("handleToneView: got invalid input: %x %q, ignoring", r, r)
	}
}

// enterToneView is called on startup and by the other states on exit
func (a *app) enterToneView() {
	a.currentLine.Reset()
	a.screen.Clear()

	a.mu.Lock()
	a.state = toneView
	a.refreshToneViewLocked()
	a.mu.Unlock()
}

// refreshToneViewLocked redraws the whole view, callers hold a.mu
func (a *app) refreshToneViewLocked() {
	if a.playingSince.IsZero() {
		a.screen.WriteTitle("IDLE")
		a.screen.WriteHelp("SPACE play / ESC freq")
	} else {
		a.screen.WriteTitle("PLAYING-" + a.trigger)
		a.screen.WriteHelp("SPACE stop")
	}
	a.screen.WriteReadout(fmt.Sprintf("%d Hz", a.frequency))
}

func (a *app) togglePlay(trigger string) {
	if a.gen.Playing() {
		a.stopTone()
	} else {
		a.startTone(trigger)
	}
}

func (a *app) startTone(trigger string) {
	if a.gen.Playing() {
		return
	}

	a.mu.RLock()
	stale := !a.playingSince.IsZero()
	a.mu.RUnlock()
	if stale {
		// playback died on its own, log what there was of it
		a.stopTone()
	}

	err := a.gen.Start()
	if err != nil {
		logger.Errorf("could not start playback: %v", err)
		go a.failFeedback()
		return
	}

	a.mu.Lock()
	a.playingSince = time.Now()
	a.trigger = trigger
	if a.state == toneView {
		a.refreshToneViewLocked()
	}
	a.mu.Unlock()

	logger.Tracef("playing %v hz (%v)", a.gen.Table().Frequency(), trigger)
}

func (a *app) stopTone() {
	a.gen.Stop()

	a.mu.Lock()
	started := a.playingSince
	trigger := a.trigger
	freq := a.frequency
	a.playingSince = time.Time{}
	if a.state == toneView {
		a.refreshToneViewLocked()
	}
	a.mu.Unlock()

	if started.IsZero() {
		return
	}

	ev := playlog.Event{
		Frequency: freq,
		Duration:  time.Since(started),
		Trigger:   trigger,
		MachineID: a.cfg.MachineID,
		StartedAt: started,
	}
	logger.Tracef("logging play: %#v", ev)
	a.plays.Insert(ev)

	// a duty write fault surfaces once the playback is over
	if err := a.gen.Err(); err != nil {
		go a.failFeedback()
	}
}

// nudgeFrequency steps the tone up or down, the frequency is fixed
// while playing.
func (a *app) nudgeFrequency(delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.playingSince.IsZero() {
		return
	}

	f := a.frequency + delta
	t, err := tone.NewTable(int(a.cfg.SampleRate), f)
	if err != nil {
		logger.Debugf("cannot nudge to %v hz: %v", f, err)
		go a.failFeedback()
		return
	}

	if err := a.gen.Retune(t); err != nil {
		logger.Debugf("retune failed: %v", err)
		return
	}

	a.frequency = f
	a.persistSettingsLocked()
	if a.state == toneView {
		a.refreshToneViewLocked()
	}
}
