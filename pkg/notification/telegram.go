// Package notification delivers operator alerts through Telegram, e-mail and the log
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
	tb "gopkg.in/tucnak/telebot.v2"
)

type messageSender interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

// StatusFunc renders the current state of the bot for the /status command
type StatusFunc func() string

// Telegram sends alerts to a single chat and answers its commands
type Telegram struct {
	chat   *tb.Chat
	sender messageSender
	client *tb.Bot
	status StatusFunc
	log    logger.Logger
}

// TelegramOption configures a Telegram notifier
type TelegramOption func(*Telegram)

// WithStatus enables the /status command
func WithStatus(status StatusFunc) TelegramOption {
	return func(t *Telegram) {
		t.status = status
	}
}

var commands = []tb.Command{
	{Text: "/help", Description: "Display help instructions"},
	{Text: "/status", Description: "Check bot status"},
}

// NewTelegram connects to the Telegram bot API. Only the configured chat may
// talk to the bot.
func NewTelegram(settings core.TelegramSettings, log logger.Logger, options ...TelegramOption) (*Telegram, error) {
	poller := &tb.LongPoller{Timeout: 10 * time.Second}
	auth := tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Chat == nil {
			return false
		}

		if u.Message.Chat.ID != settings.ChatID {
			log.WithField("chat", u.Message.Chat.ID).Warn("unauthorized telegram chat")
			return false
		}

		return true
	})

	client, err := tb.NewBot(tb.Settings{
		Token:  settings.Token,
		Poller: auth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	if err := client.SetCommands(commands); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	t := newTelegram(client, settings.ChatID, log, options...)
	t.client = client

	client.Handle("/help", t.HelpHandle)
	client.Handle("/status", t.StatusHandle)

	return t, nil
}

func newTelegram(sender messageSender, chatID int64, log logger.Logger, options ...TelegramOption) *Telegram {
	t := &Telegram{
		chat:   &tb.Chat{ID: chatID},
		sender: sender,
		log:    log,
	}

	for _, option := range options {
		option(t)
	}

	return t
}

// Start begins polling for commands
func (t *Telegram) Start() {
	if t.client != nil {
		go t.client.Start()
	}
}

// Stop ends polling
func (t *Telegram) Stop() {
	if t.client != nil {
		t.client.Stop()
	}
}

// Notify sends text to the configured chat
func (t *Telegram) Notify(text string) {
	if _, err := t.sender.Send(t.chat, text); err != nil {
		t.log.WithError(err).Error("notification/telegram: failed to send message")
	}
}

// HelpHandle lists the available commands
func (t *Telegram) HelpHandle(m *tb.Message) {
	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("%s - %s", command.Text, command.Description))
	}

	t.reply(m, strings.Join(lines, "\n"))
}

// StatusHandle answers with the state of every session
func (t *Telegram) StatusHandle(m *tb.Message) {
	if t.status == nil {
		t.reply(m, "Status unavailable.")
		return
	}

	t.reply(m, t.status())
}

func (t *Telegram) reply(m *tb.Message, text string) {
	var to tb.Recipient = t.chat
	if m != nil && m.Chat != nil {
		to = m.Chat
	}

	if _, err := t.sender.Send(to, text); err != nil {
		t.log.WithError(err).Error("notification/telegram: failed to send message")
	}
}
