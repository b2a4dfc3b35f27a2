package main

import (
	"bytes"
	"context"
	"os"
	"sync"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/config"
	"code.sztanpet.net/zvpsz/tone-box/internal/input"
	"code.sztanpet.net/zvpsz/tone-box/internal/logwriter"
	"code.sztanpet.net/zvpsz/tone-box/internal/playlog"
	"code.sztanpet.net/zvpsz/tone-box/internal/pwm"
	"code.sztanpet.net/zvpsz/tone-box/internal/status"
	"code.sztanpet.net/zvpsz/tone-box/internal/telegram"
	"code.sztanpet.net/zvpsz/tone-box/internal/tone"
	"code.sztanpet.net/zvpsz/tone-box/internal/update"
	"github.com/juju/loggo"
)

// screen is what the views draw on, the oled is optional hardware so a
// do-nothing fallback stands in when it is absent.
type screen interface {
	WriteTitle(text string)
	WriteLine(line int, text string)
	WriteHelp(text string)
	WriteReadout(text string)
	Clear()
}

type app struct {
	ctx  context.Context
	exit context.CancelFunc
	cfg  *config.Config

	screen screen
	status *status.Status
	plays  *playlog.Log
	bot    *telegram.Bot
	upd    *update.Binary
	dev    *pwm.Device
	gen    *tone.Generator

	state       State
	currentLine bytes.Buffer

	mu           sync.RWMutex
	frequency    int
	playingSince time.Time
	trigger      string
	lastActive   time.Time

	idleMu    sync.Mutex
	idleTasks []func()
	activity  chan struct{}
}

var logger = loggo.GetLogger("tone-box")
var (
	idleDurr   = 1 * time.Hour
	statusDurr = 5 * time.Minute
)

func main() {
	cfg := config.Get()
	ctx, exit := context.WithCancel(context.Background())
	a := &app{
		ctx:        ctx,
		exit:       exit,
		cfg:        cfg,
		frequency:  int(cfg.ToneFrequency),
		lastActive: time.Now(),
		activity:   make(chan struct{}, 1),
	}

	// logging sends messages to telegram, so it depends on it
	a.setupTelegram()
	a.setupLogging()
	a.status = status.New(a.ctx, a.bot)

	a.handleSignals()

	// these depend on statePath
	a.setupPlaylog()
	a.setupSettings()

	// no deps
	a.setupScreen()
	a.setupSpeaker()
	a.setupButton()

	// updates are low-prio and only depend on statePath
	a.setupUpdate()

	go a.inputLoop()
	go a.idleLoop()

	// we got here successfully, light up and chirp
	a.onBootup()
	a.enterToneView()

	// canceling the context is the normal way to exit
	<-ctx.Done()
	a.onShutdown()
	time.Sleep(250 * time.Millisecond)
	os.Exit(0)
}

func (a *app) inputLoop() {
	in, err := input.New(a.ctx)
	if err != nil {
		// no terminal attached, the button and telegram still work
		logger.Warningf("tty open error, keyboard input disabled: %v", err)
		return
	}
	defer in.Close()

	for {
		select {
		case <-a.ctx.Done():
			return
		default:
		}

		r, err := in.ReadRune()
		if err != nil {
			logger.Debugf("read rune error: %v", err)
			continue
		}

		a.markActivity()

		// provide a way to exit the app directly from the keyboard
		if r == input.KeyEndTransmission {
			logger.Debugf("ctrl+d pressed, exiting")
			a.exit()
			return
		}

		a.transitionState(r)
	}
}

func (a *app) idleLoop() {
	st := time.NewTicker(statusDurr)
	it := time.NewTimer(idleDurr)
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-st.C:
			a.status.Check(logwriter.Path())
		case <-it.C:
			a.runIdleTasks()
			it.Reset(idleDurr)
		case <-a.activity:
			// reset timer, not idle
			if !it.Stop() {
				select {
				case <-it.C:
				default:
				}
			}
			it.Reset(idleDurr)
		}
	}
}

func (a *app) addIdleTask(f func()) {
	a.idleMu.Lock()
	defer a.idleMu.Unlock()

	a.idleTasks = append(a.idleTasks, f)
}

func (a *app) runIdleTasks() {
	a.idleMu.Lock()
	tasks := make([]func(), len(a.idleTasks))
	copy(tasks, a.idleTasks)
	a.idleMu.Unlock()

	for _, t := range tasks {
		t()
	}
}

func (a *app) markActivity() {
	a.mu.Lock()
	a.lastActive = time.Now()
	a.mu.Unlock()

	select {
	case a.activity <- struct{}{}:
	default:
	}
}

func (a *app) inExtendedIdle() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return time.Since(a.lastActive) >= extendedIdleDurr
}
