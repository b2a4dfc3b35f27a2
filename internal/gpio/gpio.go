package gpio

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// orangepi pc plus gpio numbering:
// (position of letter in alphabet - 1) * 32 + pin number
// Speaker - PA20 => 20
const base = "/sys/class/gpio"
const flashDurr = 500 * time.Millisecond

type dir string

var (
	in  dir = "in"
	out dir = "out"
)

type pin struct {
	mu  sync.Mutex
	pin string
}

func (p *pin) String() string {
	return "GPIO PIN: " + p.pin
}

func (p *pin) Enable() error {
	return write(gpioPath(p.pin, "value"), "1")
}

func (p *pin) Disable() {
	_ = write(gpioPath(p.pin, "value"), "0")
}

func (p *pin) Flash() {
	if err := p.Enable(); err != nil {
		return
	}

	time.Sleep(flashDurr)
	p.Disable()
}

func (p *pin) export() error {
	path := base + "/gpio" + p.pin
	if _, err := os.Stat(path); err == nil {
		return nil // already exported
	}

	if err := write(base+"/export", p.pin); err != nil {
		return fmt.Errorf("Failed to export: %v %v", p, err)
	}

	return nil
}

func (p *pin) direction(d dir) error {
	if err := write(gpioPath(p.pin, "direction"), string(d)); err != nil {
		return fmt.Errorf("Failed to set direction %v: %v %v", d, p, err)
	}

	return nil
}

// directionPin is always on, and is controlled by setting the GPIO direction instead
type directionPin struct {
	pin
}

func (p *directionPin) Enable() error {
	return p.pin.direction(in)
}

func (p *directionPin) Disable() {
	_ = p.pin.direction(out)
}

// togglePin bit bangs waveforms by flipping the value file.
type togglePin struct {
	pin
}

// Square drives a freq hz square wave on the pin for d by toggling it
// every half period. The sysfs round trip per edge puts a practical
// ceiling of a few khz on freq; above that the wave comes out slower
// and quieter than asked for.
func (p *togglePin) Square(ctx context.Context, freq int, d time.Duration) error {
	if freq < 1 {
		return fmt.Errorf("frequency %d out of range", freq)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.pin.Disable()

	t := time.NewTicker(time.Second / time.Duration(2*freq))
	defer t.Stop()

	deadline := time.Now().Add(d)
	high := false
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			high = !high
			if high {
				if err := p.pin.Enable(); err != nil {
					return err
				}
			} else {
				p.pin.Disable()
			}
		}
	}

	return nil
}

// SoftPWM slices a carrier period into on and off time on a plain gpio
// pin, for boards where no hardware pwm channel is muxed onto it. The
// scheduler jitter limits the carrier to the low khz.
type SoftPWM struct {
	p      *pin
	period time.Duration

	mu   sync.Mutex
	duty uint8
}

// NewSoftPWM prepares a software pwm at carrier hz on the named gpio
// pin, exporting it first.
func NewSoftPWM(gpioPin string, carrier int) (*SoftPWM, error) {
	if carrier < 1 || carrier > 10000 {
		return nil, fmt.Errorf("carrier %d out of range", carrier)
	}

	p := &pin{pin: gpioPin}
	if err := p.export(); err != nil {
		return nil, err
	}
	if err := p.direction(out); err != nil {
		return nil, err
	}

	return &SoftPWM{
		p:      p,
		period: time.Second / time.Duration(carrier),
	}, nil
}

// SetDuty sets the on fraction to v/255, picked up within one period.
func (s *SoftPWM) SetDuty(v uint8) {
	s.mu.Lock()
	s.duty = v
	s.mu.Unlock()
}

// Run drives the pin until ctx is canceled or a value write fails.
func (s *SoftPWM) Run(ctx context.Context) error {
	defer s.p.Disable()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.mu.Lock()
		duty := s.duty
		s.mu.Unlock()

		on := s.period * time.Duration(duty) / 255
		if on > 0 {
			if err := s.p.Enable(); err != nil {
				return err
			}
			time.Sleep(on)
		}
		if off := s.period - on; off > 0 {
			s.p.Disable()
			time.Sleep(off)
		}
	}
}

// SpeakerPin is where the speaker sits when driven as a plain gpio
// instead of through the pwm block.
const SpeakerPin = "20"

var (
	Speaker  = togglePin{pin{pin: SpeakerPin}}
	GreenLED = pin{pin: "8"}
	BlueLED  = pin{pin: "9"}

	// red pin is special! always on by default
	RedLED = directionPin{pin{pin: "10"}}
)

func Setup() (err error) {
	if err := Speaker.export(); err != nil {
		return err
	}
	if err := Speaker.direction(out); err != nil {
		return err
	}
	if err := GreenLED.export(); err != nil {
		return err
	}
	if err := GreenLED.direction(out); err != nil {
		return err
	}
	if err := BlueLED.export(); err != nil {
		return err
	}
	if err := BlueLED.direction(out); err != nil {
		return err
	}
	if err := RedLED.export(); err != nil {
		return err
	}

	return
}

func gpioPath(p string, file string) string {
	return base + "/gpio" + p + "/" + file
}

func write(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := f.WriteString(value)
	if err != nil {
		return err
	}

	if n < len(value) {
		return io.ErrShortWrite
	}

	return nil
}

func successFlash() (err error) {
	GreenLED.Disable()
	defer func() {
		err = GreenLED.Enable()
	}()

	if err := BlueLED.Enable(); err != nil {
		return err
	}
	time.Sleep(flashDurr)
	BlueLED.Disable()
	return
}

func failFlash() (err error) {
	GreenLED.Disable()
	defer func() {
		err = GreenLED.Enable()
	}()

	if err := RedLED.Enable(); err != nil {
		return err
	}
	time.Sleep(flashDurr)
	RedLED.Disable()
	return
}

// Success runs the blue flash and sound together, as one gesture.
// sound may be nil on speakerless boards.
func Success(ctx context.Context, sound func() error) error {
	g, _ := errgroup.WithContext(ctx)
	if sound != nil {
		g.Go(sound)
	}
	g.Go(successFlash)
	return g.Wait()
}

// Fail runs the red flash and sound together.
func Fail(ctx context.Context, sound func() error) error {
	g, _ := errgroup.WithContext(ctx)
	if sound != nil {
		g.Go(sound)
	}
	g.Go(failFlash)
	return g.Wait()
}
