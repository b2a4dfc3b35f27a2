package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/chime"
	"code.sztanpet.net/zvpsz/tone-box/internal/tone"
	"code.sztanpet.net/zvpsz/tone-box/internal/wavcapture"
)

// renders the speaker output to wav files instead of hardware, so the
// sine table and the chimes can be listened to on a development machine.
// No pacing: samples are produced as fast as they can be computed.
func main() {
	dir := flag.String("dir", ".", "where to put the wav files")
	rate := flag.Int("rate", 62500, "samples per second")
	freq := flag.Int("freq", 1043, "tone frequency in hz")
	durr := flag.Duration("durr", time.Second, "length of the rendered tone")
	flag.Parse()

	if err := renderTone(*dir, *rate, *freq, *durr); err != nil {
		fmt.Printf("tone err: %v\n", err)
		os.Exit(1)
	}
	if err := renderChime(*dir, *rate); err != nil {
		fmt.Printf("chime err: %v\n", err)
		os.Exit(1)
	}
}

// renderTone loops the sine table through the generator for durr worth
// of samples, the same duty writes the pwm channel would see.
func renderTone(dir string, rate, freq int, durr time.Duration) error {
	t, err := tone.NewTable(rate, freq)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, fmt.Sprintf("tone_%dhz.wav", freq))
	rec, err := wavcapture.New(path, rate)
	if err != nil {
		return err
	}

	g := tone.NewGenerator(rec, t)
	n := int(int64(rate) * int64(durr) / int64(time.Second))
	for i := 0; i < n; i++ {
		if err := g.Advance(); err != nil {
			return err
		}
	}

	if err := rec.Close(); err != nil {
		return err
	}

	fmt.Printf("%v: %v of %v hz sine, %v samples per period\n", path, rec.Duration(), freq, t.Len())
	return nil
}

func renderChime(dir string, rate int) error {
	t, err := chime.Startup(rate)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, "chime_startup.wav")
	rec, err := wavcapture.New(path, t.Rate())
	if err != nil {
		return err
	}

	for i := 0; i < t.Len(); i++ {
		if err := rec.SetDuty(t.At(i)); err != nil {
			return err
		}
	}

	if err := rec.Close(); err != nil {
		return err
	}

	fmt.Printf("%v: %v startup chime\n", path, rec.Duration())
	return nil
}
