package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/pwm"
	"code.sztanpet.net/zvpsz/tone-box/internal/tone"
)

// plays a sine tone on the hardware pwm, listen and check with a scope:
// the duty register gets one table sample per tick and the low-pass of
// the piezo turns that into a tone
func main() {
	chip := flag.Int("chip", 0, "pwm chip number")
	channel := flag.Int("channel", 0, "pwm channel on the chip")
	rate := flag.Int("rate", 62500, "samples per second")
	freq := flag.Int("freq", 1043, "tone frequency in hz")
	durr := flag.Duration("durr", 5*time.Second, "how long to play")
	flag.Parse()

	t, err := tone.NewTable(*rate, *freq)
	if err != nil {
		fmt.Printf("table err: %v\n", err)
		os.Exit(1)
	}

	dev, err := pwm.Open(*chip, *channel, *rate)
	if err != nil {
		fmt.Printf("pwm err: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("playing %v hz for %v (%v samples per period)\n", *freq, *durr, t.Len())

	g := tone.NewGenerator(dev, t)
	if err := g.Start(); err != nil {
		fmt.Printf("start err: %v\n", err)
		os.Exit(1)
	}

	<-time.After(*durr)
	g.Stop()

	if err := g.Err(); err != nil {
		fmt.Printf("playback err: %v\n", err)
		os.Exit(1)
	}
}
