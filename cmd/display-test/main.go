package main

import (
	"context"
	"fmt"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/display"
)

// walks the screen through every view the daemon uses, check the oled
// with your own eyes: text lines, the big frequency readout, accents
func main() {
	s, err := display.NewScreen(context.Background())
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	s.Clear()
	s.WriteTitle("DISPLAY TEST")
	s.WriteLine(1, "line one")
	s.WriteLine(2, "fooBarŰÁÉÚŐÍÓÜÖ")
	s.WriteHelp("(text views)")
	time.Sleep(5 * time.Second)

	s.WriteTitle("PLAYING-tty")
	s.WriteReadout("1043 Hz")
	s.WriteHelp("SPACE stop")
	time.Sleep(5 * time.Second)

	s.Clear()
}
