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

// beeps the speaker over plain gpio, no pwm involved: every edge is a
// sysfs write so expect it to top out around a few khz
func main() {
	freq := flag.Int("freq", 440, "square wave frequency in hz")
	durr := flag.Duration("durr", time.Second, "length of each beep")
	flag.Parse()

	if err := gpio.Setup(); err != nil {
		fmt.Printf("gpio err: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	fmt.Printf("beeping %v hz every %v\n", *freq, *durr+500*time.Millisecond)

	for {
		err := gpio.Speaker.Square(ctx, *freq, *durr)
		if err == context.Canceled {
			return
		}
		if err != nil {
			fmt.Printf("square err: %v\n", err)
			os.Exit(1)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
}
