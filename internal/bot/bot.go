package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/lectoria/lectoria/log"
)

// Notifier sends fire-and-forget messages to Telegram chats. No delivery
// guarantee is required by callers.
type Notifier interface {
	Notify(chatID int64, text string)
	Greet(chatID int64, name string)
}

// Bot wraps the Telegram bot: command handlers for users talking to it
// directly, plus the Notifier surface the backend uses after bookings.
type Bot struct {
	tb     *tele.Bot
	logger log.Logger
}

// New creates the bot from the shared bot token. The same token doubles as
// the login-widget verification secret.
func New(token string, logger log.Logger) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	b := &Bot{tb: tb, logger: logger}
	b.registerHandlers()
	return b, nil
}

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", func(c tele.Context) error {
		return c.Send("hello" + strconv.FormatInt(c.Chat().ID, 10))
	})

	b.tb.Handle("/test", func(c tele.Context) error {
		return c.Send("Test")
	})
}

// Start begins long polling. It blocks, so callers run it in a goroutine.
func (b *Bot) Start() {
	b.logger.Info(context.Background(), "Telegram bot polling started")
	b.tb.Start()
}

// Stop terminates polling.
func (b *Bot) Stop() {
	b.tb.Stop()
}

// Notify sends text to a chat without waiting for the result.
func (b *Bot) Notify(chatID int64, text string) {
	go func() {
		if _, err := b.tb.Send(tele.ChatID(chatID), text); err != nil {
			b.logger.Warn(context.Background(), "failed to send telegram notification",
				map[string]interface{}{"chat_id": chatID, "error": err.Error()})
		}
	}()
}

// Greet welcomes a user by name.
func (b *Bot) Greet(chatID int64, name string) {
	b.Notify(chatID, fmt.Sprintf("Hello, %s", name))
}

var _ Notifier = (*Bot)(nil)

// NopNotifier discards all messages. Used when no bot token is configured,
// e.g. in tests and local development.
type NopNotifier struct{}

func (NopNotifier) Notify(int64, string) {}

func (NopNotifier) Greet(int64, string) {}

var _ Notifier = NopNotifier{}
