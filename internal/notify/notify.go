// Package notify delivers report and admin messages to a chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrNotConfigured is returned by senders that have no destination.
var ErrNotConfigured = errors.New("notify: telegram is not configured")

// Notifier sends one HTML formatted message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Min interval between two messages to the same chat (Telegram allows ~30/min).
const telegramSendInterval = 2 * time.Second

// botSender is the part of tgbotapi.BotAPI the notifier needs.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends messages to one chat with Telegram's HTML parse
// mode, spacing sends and retrying failures.
type TelegramNotifier struct {
	bot      botSender
	chatID   int64
	retry    *RetryPolicy
	interval time.Duration

	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegramNotifier connects to the bot API and checks the token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, ErrNotConfigured
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	slog.Info("telegram notifier initialized", "bot", bot.Self.UserName, "chat_id", chatID)
	return newTelegramNotifier(bot, chatID, NewRetryPolicy(3, time.Second), telegramSendInterval), nil
}

func newTelegramNotifier(bot botSender, chatID int64, retry *RetryPolicy, interval time.Duration) *TelegramNotifier {
	return &TelegramNotifier{
		bot:      bot,
		chatID:   chatID,
		retry:    retry,
		interval: interval,
	}
}

// Send delivers text, waiting out the send interval first. It gives up early
// when ctx is cancelled during the wait.
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	n.mu.Lock()
	defer n.mu.Unlock()

	if wait := n.interval - time.Since(n.lastSend); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	start := time.Now()
	err := n.retry.Execute(ctx, func() error {
		_, err := n.bot.Send(msg)
		return err
	})
	n.lastSend = time.Now()

	if err != nil {
		slog.Error("telegram send failed", "chat_id", n.chatID, "error", err)
		return err
	}
	slog.Info("telegram send succeeded",
		"chat_id", n.chatID,
		"send_duration", time.Since(start),
		"message_preview", truncate(text, 50),
	)
	return nil
}

// LogNotifier writes messages to the log instead of a chat. It is used when
// no bot token is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, text string) error {
	slog.Info("notification (telegram disabled)", "text", text)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
