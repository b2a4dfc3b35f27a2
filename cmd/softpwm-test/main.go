package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/gpio"
)

// runs a software timed pwm on the speaker gpio: the period is sliced
// into on and off time in a plain loop, no pwm block involved. Useful
// on boards where the speaker pin has no hardware channel muxed onto
// it, and for hearing what scheduler jitter does to a tone.
func main() {
	pin := flag.String("pin", gpio.SpeakerPin, "gpio pin number")
	freq := flag.Int("freq", 440, "carrier frequency in hz")
	duty := flag.Int("duty", 127, "on fraction, 0..255")
	durr := flag.Duration("durr", 5*time.Second, "how long to run")
	flag.Parse()

	if *duty < 0 || *duty > 255 {
		fmt.Printf("duty %v out of range, want 0..255\n", *duty)
		os.Exit(1)
	}

	s, err := gpio.NewSoftPWM(*pin, *freq)
	if err != nil {
		fmt.Printf("softpwm err: %v\n", err)
		os.Exit(1)
	}
	s.SetDuty(uint8(*duty))

	ctx, cancel := context.WithTimeout(context.Background(), *durr)
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	fmt.Printf("soft pwm on gpio %v: %v hz at %v/255 duty for %v\n", *pin, *freq, *duty, *durr)

	err = s.Run(ctx)
	if err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		fmt.Printf("softpwm err: %v\n", err)
		os.Exit(1)
	}
}
