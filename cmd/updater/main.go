package main

import (
	"context"
	"os"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/config"
	"code.sztanpet.net/zvpsz/tone-box/internal/logwriter"
	"code.sztanpet.net/zvpsz/tone-box/internal/telegram"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("updater")
var updateDurr = 5 * time.Minute

// managed are the binaries the updater keeps current, they all live in
// the same directory as the updater itself
var managed = []string{"tone-box", "updater"}

func main() {
	cfg := config.Get()
	ctx, exit := context.WithCancel(context.Background())

	bot := telegram.New(ctx, cfg)
	err := logwriter.Setup(bot, cfg)
	if err != nil {
		logger.Criticalf("Failed initializing logwriter: %v", err)
		os.Exit(1)
	}

	a := &app{
		ctx:  ctx,
		exit: exit,
		cfg:  cfg,
	}
	a.handleSignals()
	err = a.setupUpdate(managed)
	if err != nil {
		logger.Criticalf("Failed setupUpdate: %v", err)
		os.Exit(1)
	}

	a.loop()
	// TODO health checks and update revert on detecting problems?

	os.Exit(0)
}
