// package tone generates audio on a pwm output by rewriting the duty
// register once per sample tick. A Table holds one period of the
// waveform as 8 bit duty values, a Generator loops it while playing.
package tone

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// the pwm sequence counter is 15 bits wide
const maxSamples = 32767

// ErrFrequency marks tones that cannot be played at the output sample
// rate: the period either rounds to zero samples or needs more samples
// than the sequence counter can address.
var ErrFrequency = errors.New("frequency not playable at this sample rate")

// Output is the pwm channel the generator drives. SetDuty rewrites the
// duty register, Enable and Disable switch the output signal on and off.
type Output interface {
	SetDuty(v uint8) error
	Enable() error
	Disable()
}

// Table is one full period of a waveform as 8 bit duty values.
// It is immutable once built and safe to share.
type Table struct {
	samples []uint8
	rate    int
	freq    int
}

// NewTable computes one period of a sine at freq hz, sampled at rate hz.
// The period is rate/freq samples, rounded.
func NewTable(rate, freq int) (*Table, error) {
	if rate <= 0 || freq <= 0 {
		return nil, fmt.Errorf("%d hz at %d hz sample rate: %w", freq, rate, ErrFrequency)
	}

	n := int(math.Round(float64(rate) / float64(freq)))
	if n == 0 || n > maxSamples {
		return nil, fmt.Errorf("%d hz needs %d samples per period at %d hz sample rate: %w", freq, n, rate, ErrFrequency)
	}

	return &Table{
		samples: sine(n),
		rate:    rate,
		freq:    freq,
	}, nil
}

// TableFromSamples wraps duty values that were authored offline instead
// of computed, like chimes or rendered audio clips.
func TableFromSamples(rate int, samples []uint8) (*Table, error) {
	if rate <= 0 || len(samples) == 0 || len(samples) > maxSamples {
		return nil, fmt.Errorf("%d samples at %d hz sample rate: %w", len(samples), rate, ErrFrequency)
	}

	s := make([]uint8, len(samples))
	copy(s, samples)
	return &Table{samples: s, rate: rate}, nil
}

// sine evaluates one period at n evenly spaced points starting at phase
// zero, scaled into 0..255 around the 128 midpoint.
func sine(n int) []uint8 {
	if n == 2 {
		// sin(0) and sin(pi) are both the midpoint, which is
		// silence; emit the nyquist square instead
		return []uint8{math.MaxUint8, 0}
	}

	s := make([]uint8, n)
	for i := range s {
		v := math.Sin(2 * math.Pi * float64(i) / float64(n))
		s[i] = uint8(math.Round(127.5 + 127.5*v))
	}
	return s
}

func (t *Table) Len() int       { return len(t.samples) }
func (t *Table) At(i int) uint8 { return t.samples[i] }
func (t *Table) Rate() int      { return t.rate }

// Frequency is the tone frequency in hz, or 0 for authored tables.
func (t *Table) Frequency() int { return t.freq }

// Tick is the wall clock duration of one sample.
func (t *Table) Tick() time.Duration {
	return time.Duration(int64(time.Second) / int64(t.rate))
}
