package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/pwm"
	"code.sztanpet.net/zvpsz/tone-box/internal/sweep"
)

// steps a square wave up the frequency ladder, good for finding the
// resonant peak of a piezo before settling on a default tone
func main() {
	chip := flag.Int("chip", 0, "pwm chip number")
	channel := flag.Int("channel", 0, "pwm channel on the chip")
	tick := flag.Int("tick", sweep.DefaultTick, "sweep steps per second")
	stop := flag.Int("stop", sweep.DefaultStop, "stop after passing this frequency")
	hold := flag.Duration("hold", sweep.DefaultHold, "how long to hold at the stop frequency")
	flag.Parse()

	// the sweep retunes the period every tick, the initial carrier only
	// has to be valid
	dev, err := pwm.Open(*chip, *channel, *stop)
	if err != nil {
		fmt.Printf("pwm err: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	s, err := sweep.New(dev, sweep.Config{
		Tick: *tick,
		Stop: *stop,
		Hold: *hold,
	})
	if err != nil {
		fmt.Printf("sweep err: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	if err := s.Run(ctx); err != nil && err != context.Canceled {
		fmt.Printf("sweep err: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("swept for %v\n", time.Since(start).Round(time.Second))
}
