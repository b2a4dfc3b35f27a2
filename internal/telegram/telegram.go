package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/juju/loggo"
	"golang.org/x/time/rate"
)

var logger = loggo.GetLogger("main.telegram")

// MaxSendDurr configures the limiter to send at most 1 message per MaxSendDurr
var MaxSendDurr = 500 * time.Millisecond

// ErrUnavailable is returned while the bot has no working api, like
// when the device boots without network.
var ErrUnavailable = errors.New("telegram unavailable")

type Bot struct {
	ctx       context.Context
	channelID int64
	api       *tgbotapi.BotAPI
	limiter   *rate.Limiter
}

// New always returns a usable Bot; when the api cannot be reached the
// methods return ErrUnavailable and the device carries on without it.
func New(ctx context.Context, cfg *config.Config) *Bot {
	t := &Bot{
		ctx:       ctx,
		channelID: cfg.TelegramChannelID,
		// limmit message spam to once every MaxSendDurr
		limiter: rate.NewLimiter(rate.Every(MaxSendDurr), 1),
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Warningf("telegram api unreachable, continuing without: %v", err)
		return t
	}
	t.api = api

	return t
}

// Send sends a message to the channel, optionally sending notifications depending on disableNotification
// internally ratelimited to once every 500ms
func (t *Bot) Send(txt string, disableNotification bool) (err error) {
	if t.api == nil {
		return ErrUnavailable
	}

	const postfixLength = 4
	const maxMessageSize = 4096 // https://github.com/yagop/node-telegram-bot-api/issues/165
	// 4*4096 bytes should be enough for everybody...
	if len(txt) > 9*maxMessageSize {
		panic("message too long")
	}
	s := []byte(txt)
	i := 1
	// send until there is something to send
	for len(s) > 0 {
		err = t.limiter.Wait(t.ctx)
		if err != nil {
			return err
		}

		end := maxMessageSize - postfixLength
		if len(s) < end {
			end = len(s)
		}
		tt := s
		// do we need to cut the message?
		if len(s) >= maxMessageSize {
			tt = append(s[:0:0], s[:end]...) // copy s
			tt = append(                     // append " (" + i + ")"
				tt,
				' ',
				'(',
				[]byte(string(rune(48 + i)))[0], // ascii 0 + i = "i"
				')',
			)
			i++
		}

		// adjust s
		if len(s) >= end {
			s = s[end:]
		}

		msg := tgbotapi.NewMessage(t.channelID, string(tt))
		msg.DisableNotification = disableNotification
		_, err = t.api.Send(msg)
	}

	return err
}

// SendFile uploads content as a document named filename.
func (t *Bot) SendFile(content []byte, filename string, disableNotification bool) error {
	if t.api == nil {
		return ErrUnavailable
	}

	if err := t.limiter.Wait(t.ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewDocumentUpload(t.channelID, tgbotapi.FileBytes{
		Name:  filename,
		Bytes: content,
	})
	msg.DisableNotification = disableNotification
	_, err := t.api.Send(msg)
	return err
}

// HandleMessage receives bot events, and calls callback with received messages
// old bot events are replayed on calling the method, except when onlyNewUpdates is true
func (t *Bot) HandleMessage(callback func(msg string), onlyNewUpdates bool) error {
	if t.api == nil {
		return ErrUnavailable
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := t.api.GetUpdatesChan(u)
	if err != nil {
		return err
	}
	if onlyNewUpdates {
		updates.Clear()
	}

	for {
		select {
		case <-t.ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}

			if u.Message != nil {
				callback(u.Message.Text)
			}
			if u.EditedMessage != nil {
				callback(u.EditedMessage.Text)
			}
			if u.ChannelPost != nil {
				callback(u.ChannelPost.Text)
			}
			if u.EditedChannelPost != nil {
				callback(u.EditedChannelPost.Text)
			}
		}
	}
}

// SelfMessage differentiates between messages sent to the bot
func (t *Bot) SelfMessage(txt string) bool {
	if t.api == nil {
		return false
	}
	return strings.Contains(txt, "@"+t.api.Self.UserName)
}
