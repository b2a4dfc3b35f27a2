package main

import (
	"code.sztanpet.net/zvpsz/tone-box/internal/chime"
	"code.sztanpet.net/zvpsz/tone-box/internal/gpio"
	"code.sztanpet.net/zvpsz/tone-box/internal/tone"
)

// chirp plays a short feedback table through the speaker. The tone
// itself has priority: while it is playing the chirp is skipped.
func (a *app) chirp(build func(rate int) (*tone.Table, error)) error {
	if a.gen.Playing() {
		return nil
	}

	t, err := build(int(a.cfg.SampleRate))
	if err != nil {
		return err
	}

	return tone.Once(a.ctx, a.dev, t)
}

func (a *app) onBootup() {
	if a.cfg.HardwareVersion >= 2 {
		if err := gpio.Setup(); err != nil {
			logger.Warningf("gpio setup error: %v", err)
		}

		gpio.RedLED.Disable()
		if err := gpio.GreenLED.Enable(); err != nil {
			logger.Criticalf("failed to switch green led on: %v", err)
		}
	}

	if err := a.chirp(chime.Startup); err != nil {
		logger.Warningf("startup chime error: %v", err)
	}
}

func (a *app) onShutdown() {
	a.stopTone()

	if a.cfg.HardwareVersion >= 2 {
		gpio.GreenLED.Disable()
		_ = gpio.RedLED.Enable()
	}
}

func (a *app) successFeedback() {
	sound := func() error { return a.chirp(chime.Success) }

	if a.cfg.HardwareVersion < 2 {
		if err := sound(); err != nil {
			logger.Infof("success chime failed: %v", err)
		}
		return
	}

	if err := gpio.Success(a.ctx, sound); err != nil {
		logger.Infof("gpio.Success failed: %v", err)
	}
}

func (a *app) failFeedback() {
	sound := func() error { return a.chirp(chime.Fail) }

	if a.cfg.HardwareVersion < 2 {
		if err := sound(); err != nil {
			logger.Infof("fail chime failed: %v", err)
		}
		return
	}

	if err := gpio.Fail(a.ctx, sound); err != nil {
		logger.Infof("gpio.Fail failed: %v", err)
	}
}
