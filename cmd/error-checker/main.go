package main

import (
	"context"
	"os"

	"code.sztanpet.net/zvpsz/tone-box/internal/config"
	"code.sztanpet.net/zvpsz/tone-box/internal/logwriter"
	"code.sztanpet.net/zvpsz/tone-box/internal/telegram"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("error-checker")

// runs from ExecStopPost of the service units: judges how the service
// ended, rolls back a bad update, and ships whatever output the
// binaries left behind. The failed unit's binary name is the only
// argument.
func main() {
	cfg := config.Get()
	ctx, exit := context.WithCancel(context.Background())
	bot := telegram.New(ctx, cfg)

	err := logwriter.Setup(bot, cfg)
	if err != nil {
		panic("logwriter setup failed, impossible")
	}

	bin := "tone-box"
	if len(os.Args) > 1 {
		bin = os.Args[1]
	}

	a := &app{
		ctx:  ctx,
		exit: exit,
		cfg:  cfg,
		bot:  bot,
		bin:  bin,
	}
	a.handleSignals()

	a.handleServiceError()
	a.handleLogs([]string{"tone-box", "updater"})

	exit()
}
