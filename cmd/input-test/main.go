package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"code.sztanpet.net/zvpsz/tone-box/internal/input"
)

// echoes decoded keys so a newly soldered keyboard or serial console can
// be checked before blaming the daemon's state machine
func main() {
	c := make(chan os.Signal, 1)
	signal.Notify(c)
	go func(c chan os.Signal) {
		s := <-c
		fmt.Println("Got signal:", s)
	}(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in, err := input.New(ctx)
	if err != nil {
		log.Fatalf("input err: %v", err)
	}
	defer in.Close()

	for {
		r, err := in.ReadRune()
		if err != nil {
			log.Printf("readrune %q 0x%x error: %v", r, r, err)
			continue
		}

		fmt.Printf("read: %q 0x%x\n", r, r)
		if r == input.KeyEndTransmission {
			fmt.Printf("caught ctrl+d, exiting\n")
			break
		}
	}
}
