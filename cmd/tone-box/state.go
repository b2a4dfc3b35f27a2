package main

type State int

const (
	toneView State = iota
	freqEntry
	infoPrint
)

func (s State) String() string {
	switch s {
	case toneView:
		return "toneView"
	case freqEntry:
		return "freqEntry"
	case infoPrint:
		return "infoPrint"
	default:
		panic("unknown state " + string(rune(s+'0')))
	}
}

/*
default: toneView state

toneView:
  - on space/enter -> toggle playback
  - on escape -> freqEntry
  - on up arrow -> infoPrint
  - on left/right arrow -> nudge the frequency down/up
  - on invalid char -> ignore

freqEntry:
  - on escape -> toneView, nothing changed
  - on digit -> append to currentLine, display on screen
  - on backspace/delete -> delete last char from currentLine, display on screen
  - on ctrl+w/ctrl+x -> clear currentLine, display on screen
  - on enter -> parse currentLine, retune the generator, show the result,
    wait so the user can read it, transition back to toneView

infoPrint:
  - display machine and speaker details
  - on pressing anything, returns to toneView
*/
func (a *app) transitionState(r rune) {
	a.mu.RLock()
	state := a.state
	a.mu.RUnlock()

	switch state {
	case freqEntry:
		a.handleFreqEntryInput(r)

	case infoPrint:
		a.handleInfoPrint(r)

	case toneView:
		a.handleToneView(r)
	}
}
