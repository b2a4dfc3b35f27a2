// package button watches the momentary play button. The line idles
// high through the pull up and is shorted to ground while held, so a
// falling edge is a press and a rising edge is a release.
package button

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/loggo"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

var logger = loggo.GetLogger("main.button")

// contact bounce settles well under this on the buttons we solder on
const debounce = 20 * time.Millisecond

// Event is one edge: a press or a release.
type Event struct {
	Pressed bool
	At      time.Time
}

type Button struct {
	pin gpio.PinIO
	ch  chan Event
}

// New configures the named pin (eg "GPIO3") as a pulled up input.
func New(name string) (*Button, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init failed: %v", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no gpio pin named %q", name)
	}

	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("configuring %v as input failed: %v", pin, err)
	}

	return &Button{
		pin: pin,
		ch:  make(chan Event, 4),
	}, nil
}

// Events starts watching and delivers debounced edges until ctx is
// done, then closes the channel.
func (b *Button) Events(ctx context.Context) <-chan Event {
	go b.watch(ctx)
	return b.ch
}

func (b *Button) watch(ctx context.Context) {
	defer close(b.ch)

	lastLevel := b.pin.Read()
	var lastEdge time.Time

	for {
		if ctx.Err() != nil {
			return
		}

		// timeout so ctx gets rechecked while nothing happens
		if !b.pin.WaitForEdge(time.Second) {
			continue
		}

		level := b.pin.Read()
		now := time.Now()
		if level == lastLevel || now.Sub(lastEdge) < debounce {
			continue
		}
		lastLevel = level
		lastEdge = now

		ev := Event{
			Pressed: level == gpio.Low,
			At:      now,
		}
		logger.Tracef("edge on %v: pressed=%v", b.pin, ev.Pressed)

		select {
		case b.ch <- ev:
		default:
			logger.Warningf("dropping button event, consumer too slow")
		}
	}
}
