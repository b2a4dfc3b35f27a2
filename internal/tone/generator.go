package tone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("main.tone")

// Generator loops a table over a pwm output, one duty write per sample
// tick. It owns the output while playing: nothing else may touch the
// duty register between Start and Stop.
//
// The waveform has a discontinuity once per period when the table
// length does not divide the sample rate exactly; at 62500 hz that
// glitch is inaudible next to the quantization noise and is left as is.
type Generator struct {
	out Output

	mu      sync.Mutex
	table   *Table
	cursor  int
	playing bool
	stop    chan struct{}
	done    chan struct{}
	err     error
}

// NewGenerator prepares a generator for t on out. The output is left
// untouched until Start.
func NewGenerator(out Output, t *Table) *Generator {
	return &Generator{
		out:   out,
		table: t,
	}
}

// Advance writes the sample under the cursor to the duty register and
// moves the cursor forward, wrapping at the end of the table. Start
// paces it with a ticker; callers that pace playback themselves (tests,
// offline rendering) call it directly instead.
func (g *Generator) Advance() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.out.SetDuty(g.table.At(g.cursor)); err != nil {
		return fmt.Errorf("duty write failed: %v", err)
	}
	g.cursor = (g.cursor + 1) % g.table.Len()
	return nil
}

// Start begins looping the table from its first sample, enabling the
// output and pacing Advance at the table's sample rate. It is a no-op
// while already playing. A failed duty write stops playback for good;
// the error is kept for Err.
func (g *Generator) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.playing {
		return nil
	}

	if err := g.out.Enable(); err != nil {
		return fmt.Errorf("enable failed: %v", err)
	}

	g.cursor = 0
	g.err = nil
	g.stop = make(chan struct{})
	g.done = make(chan struct{})
	g.playing = true
	go g.run(g.stop, g.done, g.table.Tick())

	return nil
}

// Stop ends playback and disables the output. Playback always restarts
// from the beginning of the table, never from where Stop left it.
func (g *Generator) Stop() {
	g.mu.Lock()
	if !g.playing || g.stop == nil {
		g.mu.Unlock()
		return
	}
	stop, done := g.stop, g.done
	g.stop = nil
	g.mu.Unlock()

	close(stop)
	<-done

	g.mu.Lock()
	g.playing = false
	g.mu.Unlock()
	g.out.Disable()
}

func (g *Generator) run(stop, done chan struct{}, tick time.Duration) {
	defer close(done)

	t := time.NewTicker(tick)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := g.Advance(); err != nil {
				g.fault(err)
				return
			}
		}
	}
}

// fault handles a failed duty write: playback cannot continue, so the
// generator goes idle and remembers the error.
func (g *Generator) fault(err error) {
	logger.Errorf("stopping playback: %v", err)

	g.mu.Lock()
	g.err = err
	g.playing = false
	g.stop = nil
	g.mu.Unlock()
	g.out.Disable()
}

// Playing reports whether the generator currently drives the output.
func (g *Generator) Playing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playing
}

// Err returns the duty write error that ended the last playback, if any.
func (g *Generator) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Table returns the table the generator is set up to play.
func (g *Generator) Table() *Table {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.table
}

// Retune swaps the table for the next playback. The generator must be
// idle: the tone frequency is fixed while playing.
func (g *Generator) Retune(t *Table) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.playing {
		return fmt.Errorf("generator is playing")
	}
	g.table = t
	g.cursor = 0
	return nil
}

// Once plays t through out exactly one time and returns. The output is
// enabled for the duration and disabled before returning. Used for the
// short chimes.
func Once(ctx context.Context, out Output, t *Table) error {
	if err := out.Enable(); err != nil {
		return fmt.Errorf("enable failed: %v", err)
	}
	defer out.Disable()

	tick := time.NewTicker(t.Tick())
	defer tick.Stop()

	for i := 0; i < t.Len(); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if err := out.SetDuty(t.At(i)); err != nil {
				return fmt.Errorf("duty write failed: %v", err)
			}
		}
	}

	return nil
}
