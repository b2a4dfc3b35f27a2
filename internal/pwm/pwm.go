// package pwm drives one channel of the linux kernel pwm interface
// (/sys/class/pwm) for the speaker. more info:
// blog.oddbit.com/post/2017-09-26-some-notes-on-pwm-on-the-raspberry-pi
package pwm

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("main.pwm")

const sysfsBase = "/sys/class/pwm/pwmchip"

// Device is an exported pwm channel. It is the capability handle for
// the speaker output: whoever holds it owns the duty register. Methods
// are safe for concurrent use.
type Device struct {
	mu       sync.Mutex
	base     string // /sys/class/pwm/pwmchip0
	port     string // /sys/class/pwm/pwmchip0/pwm0
	channel  string
	exported bool
	periodNs int64
}

// Open exports channel on chip and programs a carrier hz carrier wave.
// The output starts out disabled with the duty at zero.
func Open(chip, channel, carrier int) (*Device, error) {
	d := &Device{
		base:    sysfsBase + strconv.Itoa(chip),
		channel: strconv.Itoa(channel),
	}
	d.port = d.base + "/pwm" + d.channel

	if _, err := os.Stat(d.base); err != nil {
		return nil, fmt.Errorf("no pwm chip at %v: %v", d.base, err)
	}

	if err := d.ensureExported(); err != nil {
		return nil, err
	}
	if err := d.SetCarrier(carrier); err != nil {
		return nil, err
	}

	return d, nil
}

// SetCarrier programs the pwm period to carrier hz and zeroes the duty.
// For sample playback the carrier stays fixed and the duty register is
// the amplitude; carrier also bounds the usable sample rate.
func (d *Device) SetCarrier(carrier int) error {
	if carrier <= 0 {
		return fmt.Errorf("carrier %d hz out of range", carrier)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	period := periodNs(carrier)
	if err := d.program(period, 0); err != nil {
		return err
	}
	return nil
}

// SetSquare programs a square wave of hz with a 1/dutyDiv duty cycle.
// Used by the sweep, which retunes the period on every tick.
func (d *Device) SetSquare(hz, dutyDiv int) error {
	if hz <= 0 {
		return fmt.Errorf("square %d hz out of range", hz)
	}
	if dutyDiv < 1 {
		return fmt.Errorf("duty divisor %d out of range", dutyDiv)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	period := periodNs(hz)
	return d.program(period, period/int64(dutyDiv))
}

// SetDuty rewrites the duty register to v/255 of the period. A failed
// write unexports the channel: the caller treats it as fatal.
func (d *Device) SetDuty(v uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.exported {
		return fmt.Errorf("pwm channel %v not exported", d.channel)
	}

	err := d.write(d.port+"/duty_cycle", strconv.FormatInt(dutyNs(d.periodNs, v), 10))
	if err != nil {
		d.unexport()
		return err
	}
	return nil
}

// Enable switches the output signal on.
func (d *Device) Enable() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.exported {
		return fmt.Errorf("pwm channel %v not exported", d.channel)
	}

	if err := d.write(d.port+"/enable", "1"); err != nil {
		d.unexport()
		return err
	}
	return nil
}

// Disable switches the output signal off. The period and duty survive.
func (d *Device) Disable() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.exported {
		return
	}

	if err := d.write(d.port+"/enable", "0"); err != nil {
		d.unexport()
	}
}

// Quell silences residual noise on the output while idle. Depending on
// CPU usage the transistor driving the speaker drifts into its active
// region because of noise on the idle pwm pin, heating the components.
// Momentarily switching the output on clears it.
func (d *Device) Quell() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.exported {
		return
	}

	if err := d.write(d.port+"/enable", "1"); err != nil {
		d.unexport()
		return
	}
	time.Sleep(10 * time.Millisecond)
	if err := d.write(d.port+"/enable", "0"); err != nil {
		d.unexport()
	}
}

// Exported reports whether the channel is still usable; a write failure
// unexports it for good.
func (d *Device) Exported() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exported
}

// program writes period and duty, lowering the duty first so the new
// period is never smaller than the old duty value.
func (d *Device) program(period, duty int64) error {
	if !d.exported {
		return fmt.Errorf("pwm channel %v not exported", d.channel)
	}

	if err := d.write(d.port+"/duty_cycle", "0"); err != nil {
		d.unexport()
		return err
	}
	if err := d.write(d.port+"/period", strconv.FormatInt(period, 10)); err != nil {
		d.unexport()
		return err
	}
	d.periodNs = period

	if duty == 0 {
		return nil
	}
	if err := d.write(d.port+"/duty_cycle", strconv.FormatInt(duty, 10)); err != nil {
		d.unexport()
		return err
	}
	return nil
}

func (d *Device) ensureExported() error {
	if d.exported {
		return nil
	}

	// already exported by a previous run?
	if _, err := os.Stat(d.port); err == nil {
		d.exported = true
	}

	if !d.exported {
		if err := d.write(d.base+"/export", d.channel); err != nil {
			return fmt.Errorf("exporting pwm channel %v failed: %v", d.channel, err)
		}
		d.exported = true
	}

	if err := d.write(d.port+"/polarity", "normal"); err != nil {
		// some drivers only allow changing polarity while disabled,
		// normal is the default anyway
		logger.Debugf("setting polarity failed: %v", err)
	}

	return nil
}

func (d *Device) unexport() {
	_ = d.write(d.base+"/unexport", d.channel)
	d.exported = false
	logger.Errorf("pwm channel %v unexported after failed write", d.channel)
}

func (d *Device) write(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := f.WriteString(value)
	if err != nil {
		return err
	}

	if n < len(value) {
		return io.ErrShortWrite
	}

	return nil
}

// periodNs converts a frequency to the period in nanoseconds.
func periodNs(hz int) int64 {
	return int64(time.Second) / int64(hz)
}

// dutyNs scales the 8 bit duty value onto the period.
func dutyNs(period int64, v uint8) int64 {
	return period * int64(v) / 255
}
