// package chime builds the short notification sounds for the speaker.
// Clips are authored at a sixteenth of the output rate and pushed
// through the lowpass interpolator, which rounds off the edges enough
// to sound like a bell instead of a beep.
package chime

import (
	"math"

	"code.sztanpet.net/zvpsz/tone-box/internal/resample"
	"code.sztanpet.net/zvpsz/tone-box/internal/tone"
)

const (
	noteC5 = 523
	noteC6 = 1046
	noteA3 = 220
)

// Startup is the two tone rising chime played once the device is ready.
func Startup(rate int) (*tone.Table, error) {
	src := burst(srcRate(rate), noteC5, 90)
	src = append(src, burst(srcRate(rate), noteC6, 120)...)
	return build(rate, src)
}

// Success is the short confirmation blip.
func Success(rate int) (*tone.Table, error) {
	return build(rate, burst(srcRate(rate), noteC6, 150))
}

// Fail is four low buzzes, matching the red flash cadence. Kept short:
// the whole clip has to fit under the sequence counter cap.
func Fail(rate int) (*tone.Table, error) {
	var src []uint8
	for i := 0; i < 4; i++ {
		src = append(src, burst(srcRate(rate), noteA3, 50)...)
		src = append(src, silence(srcRate(rate), 50)...)
	}
	return build(rate, src)
}

func build(rate int, src []uint8) (*tone.Table, error) {
	return tone.TableFromSamples(resample.Rate16(rate), resample.Upsample16(src))
}

func srcRate(rate int) int {
	return resample.Rate16(rate) / resample.Factor
}

// burst renders ms milliseconds of a freq hz sine at rate hz.
func burst(rate, freq, ms int) []uint8 {
	n := rate * ms / 1000
	s := make([]uint8, n)
	for i := range s {
		v := math.Sin(2 * math.Pi * float64(freq) * float64(i) / float64(rate))
		s[i] = uint8(math.Round(127.5 + 127.5*v))
	}
	return s
}

func silence(rate, ms int) []uint8 {
	n := rate * ms / 1000
	s := make([]uint8, n)
	for i := range s {
		s[i] = 128
	}
	return s
}
