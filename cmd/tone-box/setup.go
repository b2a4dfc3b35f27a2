package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/button"
	"code.sztanpet.net/zvpsz/tone-box/internal/display"
	"code.sztanpet.net/zvpsz/tone-box/internal/logwriter"
	"code.sztanpet.net/zvpsz/tone-box/internal/playlog"
	"code.sztanpet.net/zvpsz/tone-box/internal/pwm"
	"code.sztanpet.net/zvpsz/tone-box/internal/telegram"
	"code.sztanpet.net/zvpsz/tone-box/internal/tone"
	"code.sztanpet.net/zvpsz/tone-box/internal/update"
)

func (a *app) handleSignals() {
	if a.ctx.Err() != nil {
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		s := <-c
		// exit unconditionally on any signal
		logger.Warningf("Got signal: %s, exiting cleanly", s)
		a.exit()
	}()
}

func (a *app) setupLogging() {
	if a.ctx.Err() != nil {
		return
	}

	err := logwriter.Setup(a.bot, a.cfg)
	if err != nil {
		panic("logwriter setup failed, impossible: " + err.Error())
	}
}

func (a *app) setupTelegram() {
	if a.ctx.Err() != nil {
		return
	}

	a.bot = telegram.New(a.ctx, a.cfg)
	_ = a.bot.Send("TB-start @ "+time.Now().Format(time.RFC3339), true)

	go func() {
		err := a.bot.HandleMessage(a.handleTelegramMessage, false)

		if err != nil {
			logger.Criticalf("HandleMessage error: %v", err)
		}
	}()
}

func (a *app) setupPlaylog() {
	if a.ctx.Err() != nil {
		return
	}

	plays, err := playlog.New(a.ctx, a.cfg)
	if err != nil {
		logger.Criticalf("failed to initialize the play log: %v", err)
		os.Exit(1)
	}

	a.plays = plays
}

// noopScreen swallows the view updates on boxes without an oled.
type noopScreen struct{}

func (noopScreen) WriteTitle(string)     {}
func (noopScreen) WriteLine(int, string) {}
func (noopScreen) WriteHelp(string)      {}
func (noopScreen) WriteReadout(string)   {}
func (noopScreen) Clear()                {}

func (a *app) setupScreen() {
	if a.ctx.Err() != nil {
		return
	}

	// the oled is optional: the box still plays from the button and
	// telegram when it is missing
	screen, err := display.NewScreen(a.ctx)
	if err != nil {
		logger.Warningf("no screen, running blind: %v", err)
		a.screen = noopScreen{}
		return
	}
	a.screen = screen

	a.screen.Clear()
	a.screen.WriteTitle("STARTUP")
	a.screen.WriteLine(1, "")
	a.screen.WriteLine(2, "OK")
	a.screen.WriteHelp("speaker ready")
}

// setupSpeaker exports the pwm channel and prepares the generator on it.
// The saved frequency is tried first and the configured default is the
// fallback, a default that cannot be played is fatal.
func (a *app) setupSpeaker() {
	if a.ctx.Err() != nil {
		return
	}

	dev, err := pwm.Open(int(a.cfg.PWMChip), int(a.cfg.PWMChannel), int(a.cfg.SampleRate))
	if err != nil {
		logger.Criticalf("failed to open pwm channel: %v", err)
		os.Exit(1)
	}
	a.dev = dev

	a.mu.RLock()
	freq := a.frequency
	a.mu.RUnlock()

	t, err := tone.NewTable(int(a.cfg.SampleRate), freq)
	if err != nil {
		logger.Warningf("saved frequency %v unusable (%v), using default", freq, err)

		freq = int(a.cfg.ToneFrequency)
		t, err = tone.NewTable(int(a.cfg.SampleRate), freq)
		if err != nil {
			logger.Criticalf("default frequency %v unusable: %v", freq, err)
			os.Exit(1)
		}

		a.mu.Lock()
		a.frequency = freq
		a.mu.Unlock()
	}

	a.gen = tone.NewGenerator(dev, t)

	a.status.WatchPWM(func() bool {
		return a.dev.Exported() && a.gen.Err() == nil
	})

	// the transistor driving the speaker picks up noise on the idle
	// pwm pin, quell it when nothing played for a while
	a.addIdleTask(func() {
		if !a.gen.Playing() {
			a.dev.Quell()
		}
	})
}

func (a *app) setupButton() {
	if a.ctx.Err() != nil {
		return
	}

	if a.cfg.ButtonPin == "" {
		logger.Debugf("no button configured")
		return
	}

	btn, err := button.New(a.cfg.ButtonPin)
	if err != nil {
		logger.Warningf("button setup failed, running without: %v", err)
		return
	}

	events := btn.Events(a.ctx)
	go func() {
		// hold to play: press starts, release stops
		for ev := range events {
			a.markActivity()
			if ev.Pressed {
				a.startTone("button")
			} else {
				a.stopTone()
			}
		}
	}()
}

func (a *app) setupUpdate() {
	if a.ctx.Err() != nil {
		return
	}

	binPath, err := os.Executable()
	if err != nil {
		logger.Criticalf("os.Executable failed: %v", err)
		panic("os.Executable failed: " + err.Error())
	}
	upd, err := update.NewBinary(binPath, a.cfg)
	if err != nil {
		logger.Criticalf("update.NewBinary failed: %v", err)
		panic("update.NewBinary failed: " + err.Error())
	}
	a.upd = upd
	a.upd.Cleanup()

	a.addIdleTask(func() {
		if a.upd.ShouldRestart() {
			logger.Warningf("update available, exiting cleanly")
			a.exit()
		}
	})
}

func (a *app) setupSettings() {
	a.loadSettings()
	a.addIdleTask(func() {
		if a.inExtendedIdle() {
			a.resetSettings()
		}
	})
}
