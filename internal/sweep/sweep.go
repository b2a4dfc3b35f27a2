// package sweep drives the classic speaker demo: a square wave swept up
// from 1 hz one hz per tick, held at the stop frequency for a while,
// then restarted from the bottom.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("main.sweep")

const (
	// DefaultTick is the sweep scheduler rate in ticks per second.
	DefaultTick = 64
	// DefaultStop is the frequency the sweep holds at, in hz.
	DefaultStop = 500
	// DefaultHold is how long the stop frequency is held.
	DefaultHold = 5 * time.Second
	// DefaultDutyDiv gives the 1/4 duty cycle of the reference demo.
	DefaultDutyDiv = 4
)

// Driver is the square wave output the sweep reprograms on every tick.
type Driver interface {
	SetSquare(hz, dutyDiv int) error
	Enable() error
	Disable()
}

// Config tunes a sweep; zero fields fall back to the defaults.
type Config struct {
	Tick    int           // scheduler ticks per second
	Stop    int           // hold frequency in hz
	Hold    time.Duration // time to hold at Stop before restarting
	DutyDiv int           // duty cycle is 1/DutyDiv; 2, 3 or 4
}

// Sweep steps a square wave frequency. Not safe for concurrent use;
// Run owns it while running.
type Sweep struct {
	drv       Driver
	tick      int
	stop      int
	holdTicks int
	div       int

	freq int
}

// New validates cfg and prepares a sweep on drv.
func New(drv Driver, cfg Config) (*Sweep, error) {
	if cfg.Tick == 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.Stop == 0 {
		cfg.Stop = DefaultStop
	}
	if cfg.Hold == 0 {
		cfg.Hold = DefaultHold
	}
	if cfg.DutyDiv == 0 {
		cfg.DutyDiv = DefaultDutyDiv
	}

	if cfg.Tick < 1 {
		return nil, fmt.Errorf("tick rate %d out of range", cfg.Tick)
	}
	if cfg.Stop < 1 {
		return nil, fmt.Errorf("stop frequency %d out of range", cfg.Stop)
	}
	// duty cycles shallower than 1/4 stop being useful, 1/1 is no
	// square wave at all
	if cfg.DutyDiv < 2 || cfg.DutyDiv > 4 {
		return nil, fmt.Errorf("duty divisor %d out of range, want 2..4", cfg.DutyDiv)
	}

	return &Sweep{
		drv:       drv,
		tick:      cfg.Tick,
		stop:      cfg.Stop,
		holdTicks: int(cfg.Hold * time.Duration(cfg.Tick) / time.Second),
		div:       cfg.DutyDiv,
	}, nil
}

// Step advances the sweep by one tick, reprogramming the output. The
// frequency counter runs up one hz per tick; past the stop frequency
// the output stays pinned there until the hold runs out.
func (s *Sweep) Step() error {
	if s.freq < 1 || s.freq >= s.stop+s.holdTicks {
		// new sweep from the bottom
		s.freq = 1
	}

	f := s.freq
	if f > s.stop {
		f = s.stop
	}

	if err := s.drv.SetSquare(f, s.div); err != nil {
		return fmt.Errorf("retuning to %d hz failed: %v", f, err)
	}

	s.freq++
	return nil
}

// Run enables the output and steps the sweep until ctx is canceled or
// the driver fails. The output is disabled on the way out.
func (s *Sweep) Run(ctx context.Context) error {
	if err := s.drv.Enable(); err != nil {
		return fmt.Errorf("enable failed: %v", err)
	}
	defer s.drv.Disable()

	logger.Infof("sweeping to %d hz, %d ticks/s, 1/%d duty", s.stop, s.tick, s.div)

	t := time.NewTicker(time.Second / time.Duration(s.tick))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := s.Step(); err != nil {
				return err
			}
		}
	}
}
