package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/aleister1102/sitewatch/internal/models"
	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"
)

// TelegramNotifier sends update events to one Telegram chat
type TelegramNotifier struct {
	bot    *tele.Bot
	chat   tele.ChatID
	logger zerolog.Logger
}

// NewTelegramNotifier creates a bot client for cfg.TelegramToken. The bot is
// created offline, so the token is first checked on the first send.
func NewTelegramNotifier(cfg config.NotificationConfig, client *http.Client, logger zerolog.Logger) (*TelegramNotifier, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, common.NewError("telegram token is empty")
	}

	bot, err := tele.NewBot(tele.Settings{
		URL:     cfg.TelegramAPIURL,
		Token:   cfg.TelegramToken,
		Client:  client,
		Offline: true,
	})
	if err != nil {
		return nil, common.WrapError(err, "failed to create telegram bot")
	}

	return &TelegramNotifier{
		bot:    bot,
		chat:   tele.ChatID(cfg.TelegramChatID),
		logger: logger.With().Str("component", "TelegramNotifier").Logger(),
	}, nil
}

func (tn *TelegramNotifier) Name() string { return "telegram" }

func (tn *TelegramNotifier) Remote() bool { return true }

// Notify sends a plain text message. The bot API call is not context aware,
// so the send runs on its own goroutine and ctx only bounds the wait.
func (tn *TelegramNotifier) Notify(ctx context.Context, event models.NotificationEvent) error {
	done := make(chan error, 1)
	go func() {
		_, err := tn.bot.Send(tn.chat, FormatTelegramMessage(event))
		done <- err
	}()

	select {
	case <-ctx.Done():
		return common.WrapError(ctx.Err(), "telegram send interrupted")
	case err := <-done:
		if err != nil {
			return common.WrapError(err, "telegram send failed")
		}
		tn.logger.Debug().Int64("chat_id", int64(tn.chat)).Msg("Telegram notification sent")
		return nil
	}
}

// FormatTelegramMessage renders event as message text
func FormatTelegramMessage(event models.NotificationEvent) string {
	var b strings.Builder
	b.WriteString("The site was updated.\n")
	fmt.Fprintf(&b, "URL: %s\n", event.URL)
	fmt.Fprintf(&b, "Update time: %s", event.NewTimestamp.Format())
	if event.Previous.IsSet() {
		fmt.Fprintf(&b, "\nPrevious: %s", event.Previous.Format())
	}
	return b.String()
}
