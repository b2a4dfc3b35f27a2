// +build amd64

// in-memory stand-in for the oled screen so the daemon runs on
// development machines without i2c hardware
package display

import (
	"context"
	"sync"
	"time"
)

// The ScreenTimeout duration after which the display is blanked to prevent burn-in.
var ScreenTimeout = 1 * time.Hour

// lineCount defines how many lines of text fit on the screen
const lineCount = 4

type Screen struct {
	ctx context.Context

	mu         sync.Mutex
	lines      []string
	readout    string
	lastActive time.Time
}

func NewScreen(ctx context.Context) (*Screen, error) {
	ret := &Screen{
		ctx:        ctx,
		lines:      make([]string, lineCount),
		lastActive: time.Now(),
	}

	return ret, nil
}

// WriteTitle draws the text in black on a white background into the first line (line #0)
func (s *Screen) WriteTitle(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines[0] = text
	s.lastActive = time.Now()
}

// WriteLine writes the text in white on black into the indicated line (usually #1 or #2)
func (s *Screen) WriteLine(line int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines[line] = text
	s.readout = ""
	s.lastActive = time.Now()
}

// WriteHelp writes help text in black on white into the last line (line #3)
func (s *Screen) WriteHelp(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines[lineCount-1] = text
	s.lastActive = time.Now()
}

// WriteReadout draws text large and centered over both content lines,
// meant for the current frequency.
func (s *Screen) WriteReadout(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines[1] = ""
	s.lines[2] = ""
	s.readout = text
	s.lastActive = time.Now()
}

func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		s.lines[i] = ""
	}
	s.readout = ""
	s.lastActive = time.Now()
}

// Lines reports the text currently on screen.
func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// Readout reports the large text currently on screen, if any.
func (s *Screen) Readout() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readout
}
