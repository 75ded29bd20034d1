package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"PeakWatch/internal/model"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Notifier publishes a summary of a finished report.
type Notifier interface {
	Notify(ctx context.Context, report *model.Report) error
}

// NoopNotifier is used when no notification channel is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, *model.Report) error { return nil }

// TelegramOptions configures a TelegramNotifier. Endpoint defaults to the public Bot API.
type TelegramOptions struct {
	BotToken   string
	ChatID     string
	Proxy      string
	Endpoint   string
	MaxRetries int
}

// TelegramNotifier sends report digests via the Telegram Bot API.
type TelegramNotifier struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	maxRetries int
}

// NewTelegramNotifier creates a notifier with optional proxy support. It
// calls getMe once to validate the token.
func NewTelegramNotifier(opts TelegramOptions) (*TelegramNotifier, error) {
	chatID, err := strconv.ParseInt(opts.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse chat id %q: %w", opts.ChatID, err)
	}
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}

	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.BotToken, opts.Endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, maxRetries: opts.MaxRetries}, nil
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxRetries)), ctx)
	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return t.Send(text)
	}, policy, func(err error, wait time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Int("max", maxRetries+1).Dur("wait", wait).Msg("telegram send failed, retrying")
	})
}

// Notify sends the digest of report.
func (t *TelegramNotifier) Notify(ctx context.Context, report *model.Report) error {
	return t.SendWithRetry(ctx, FormatDigest(report), t.maxRetries)
}
