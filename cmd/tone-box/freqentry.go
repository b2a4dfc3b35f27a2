package main

import (
	"fmt"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"

	"code.sztanpet.net/zvpsz/tone-box/internal/input"
	"code.sztanpet.net/zvpsz/tone-box/internal/tone"
)

// enterFreqEntry is only called by transitionState
func (a *app) enterFreqEntry() {
	a.mu.Lock()
	a.state = freqEntry
	a.mu.Unlock()
	a.currentLine.Reset()

	a.screen.Clear()
	a.screen.WriteTitle("FREQUENCY")
	a.screen.WriteLine(1, "New frequency (Hz):")
	a.screen.WriteLine(2, "")
	a.screen.WriteHelp("(ESC to cancel)")
}

// cancelFreqEntry is only called by transitionState
func (a *app) cancelFreqEntry() {
	a.currentLine.Reset()
	a.enterToneView()
}

// applyFrequency retunes the generator to the entered frequency and
// shows the result before falling back to the tone view.
func (a *app) applyFrequency(line string) {
	f, err := strconv.Atoi(line)
	if err == nil {
		err = a.retune(f)
	}

	if err != nil {
		logger.Infof("cannot retune to %q: %v", line, err)
		a.screen.WriteLine(2, "Error!")
		go a.failFeedback()
	} else {
		a.screen.WriteLine(2, "Success!")
		go a.successFeedback()
	}
	time.Sleep(2 * time.Second)

	logger.Debugf("State: freqEntry -> toneView")
	a.enterToneView()
}

func (a *app) retune(f int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, err := tone.NewTable(int(a.cfg.SampleRate), f)
	if err != nil {
		return err
	}

	if err := a.gen.Retune(t); err != nil {
		return err
	}

	a.frequency = f
	a.persistSettingsLocked()
	if a.state == toneView {
		a.refreshToneViewLocked()
	}
	return nil
}

// handleFreqEntryInput is only called by transitionState
func (a *app) handleFreqEntryInput(r rune) {
	switch r {
	case input.KeyEnter:
		line := a.currentLine.String()
		if len(line) == 0 {
			return
		}
		a.applyFrequency(line)

	case input.KeyEscape:
		logger.Debugf("handleFreqEntryInput: escape pressed")
		a.cancelFreqEntry()

	case input.KeyBackspace, input.KeyDelete:
		// https://stackoverflow.com/questions/39907667/how-to-remove-unicode-characters-from-byte-buffer-in-go
		if a.currentLine.Len() >= 1 {
			b := a.currentLine.Bytes()
			i := 0
			for i < len(b) {
				_, n := utf8.DecodeRune(b[i:])
				if i+n == len(b) {
					a.currentLine.Truncate(i)
					break
				}
				i += n
			}

			a.screen.WriteLine(2, a.currentLine.String())
			logger.Tracef("handleFreqEntryInput: backspace")
		}

	case input.KeyDeleteWord, input.KeyDeleteLine:
		a.currentLine.Reset()
		a.screen.WriteLine(2, "")

	default:
		if unicode.IsDigit(r) {
			_, _ = a.currentLine.WriteRune(r)
			a.screen.WriteLine(2, a.currentLine.String())
		}
	}
}

// enterInfoPrint is only called by transitionState
func (a *app) enterInfoPrint() {
	a.mu.Lock()
	a.state = infoPrint
	freq := a.frequency
	a.mu.Unlock()

	a.screen.Clear()
	a.screen.WriteTitle("INFO")
	a.screen.WriteLine(1, "id: "+shortID(a.cfg.MachineID))
	a.screen.WriteLine(2, fmt.Sprintf("%v Hz @ %v sps", freq, a.cfg.SampleRate))
	a.screen.WriteHelp("(any key to return)")
}

func (a *app) handleInfoPrint(r rune) {
	logger.Debugf("State: infoPrint -> toneView")
	a.enterToneView()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}

	return id[:8]
}
