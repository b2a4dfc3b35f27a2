package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// handleTelegramMessage reacts to channel messages mentioning the bot:
//   play [hz]   start playback, retuning first when a frequency is given
//   stop        stop playback
//   status      reply with system and speaker state
// everything else in the channel (including our own log and status
// output) is left alone.
func (a *app) handleTelegramMessage(msg string) {
	if !a.bot.SelfMessage(msg) {
		return
	}

	a.markActivity()

	var cmd string
	var args []string
	for _, f := range strings.Fields(msg) {
		if strings.HasPrefix(f, "@") {
			continue
		}
		if cmd == "" {
			cmd = strings.ToLower(f)
			continue
		}
		args = append(args, f)
	}

	logger.Debugf("telegram command: %q %v", cmd, args)

	switch cmd {
	case "play":
		a.remotePlay(args)

	case "stop":
		a.stopTone()
		_ = a.bot.Send("stopped", true)

	case "status":
		_ = a.bot.Send(a.statusReply(), true)

	default:
		_ = a.bot.Send("commands: play [hz] | stop | status", true)
	}
}

func (a *app) remotePlay(args []string) {
	if len(args) > 0 {
		f, err := strconv.Atoi(args[0])
		if err != nil {
			_ = a.bot.Send(fmt.Sprintf("bad frequency %q", args[0]), false)
			return
		}

		if err := a.retune(f); err != nil {
			_ = a.bot.Send(fmt.Sprintf("cannot play %v hz: %v", f, err), false)
			return
		}
	}

	a.startTone("telegram")

	if err := a.gen.Err(); err != nil {
		_ = a.bot.Send(fmt.Sprintf("speaker fault: %v", err), false)
		return
	}

	_ = a.bot.Send(fmt.Sprintf("playing %v hz", a.gen.Table().Frequency()), true)
}

func (a *app) statusReply() string {
	a.mu.RLock()
	freq := a.frequency
	since := a.playingSince
	trigger := a.trigger
	a.mu.RUnlock()

	var b strings.Builder
	if since.IsZero() {
		fmt.Fprintf(&b, "idle at %v hz\n", freq)
	} else {
		fmt.Fprintf(&b, "playing %v hz for %v (%v)\n",
			freq, time.Since(since).Round(time.Second), trigger)
	}

	if err := a.gen.Err(); err != nil {
		fmt.Fprintf(&b, "speaker fault: %v\n", err)
	}

	b.WriteString(a.status.Summary())

	return b.String()
}
