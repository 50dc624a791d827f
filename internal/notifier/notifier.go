// Package notifier delivers update notifications over the configured channels.
package notifier

import (
	"context"
	"io"
	"time"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/aleister1102/sitewatch/internal/httpclient"
	"github.com/aleister1102/sitewatch/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Notifier is implemented by every notification channel
type Notifier interface {
	Notify(ctx context.Context, event models.NotificationEvent) error
}

// Channel is a named notifier. Remote channels are rate limited and get a
// per-send timeout.
type Channel interface {
	Notifier
	Name() string
	Remote() bool
}

// Multi fans one event out to every channel. A failing channel never
// prevents the others from being tried.
type Multi struct {
	channels []Channel
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewMulti creates a fan-out notifier. ratePerMinute bounds remote sends;
// zero or less disables limiting.
func NewMulti(channels []Channel, ratePerMinute int, timeout time.Duration, logger zerolog.Logger) *Multi {
	m := &Multi{
		channels: channels,
		timeout:  timeout,
		logger:   logger.With().Str("component", "Notifier").Logger(),
	}
	if ratePerMinute > 0 {
		m.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), ratePerMinute)
	}
	return m
}

// New builds the channels enabled in cfg. The bell writes to bellOut.
func New(cfg config.NotificationConfig, factory *httpclient.HTTPClientFactory, bellOut io.Writer, logger zerolog.Logger) (*Multi, error) {
	var channels []Channel

	if cfg.Bell {
		channels = append(channels, NewBellNotifier(bellOut))
	}

	if cfg.DiscordWebhookURL != "" || cfg.TelegramToken != "" {
		client, err := factory.CreateNotifierClient(cfg.Timeout())
		if err != nil {
			return nil, common.WrapError(err, "failed to create notifier HTTP client")
		}

		if cfg.DiscordWebhookURL != "" {
			channels = append(channels, NewDiscordNotifier(cfg.DiscordWebhookURL, client, logger))
		}
		if cfg.TelegramToken != "" {
			telegram, err := NewTelegramNotifier(cfg, client.Client(), logger)
			if err != nil {
				return nil, err
			}
			channels = append(channels, telegram)
		}
	}

	return NewMulti(channels, cfg.RatePerMinute, cfg.Timeout(), logger), nil
}

// Channels returns the names of the configured channels
func (m *Multi) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Notify sends event on every channel and returns the combined failures,
// each wrapped as *common.NotifierError.
func (m *Multi) Notify(ctx context.Context, event models.NotificationEvent) error {
	var errs []error
	remoteAllowed := true
	if m.limiter != nil && m.hasRemote() {
		remoteAllowed = m.limiter.Allow()
	}

	for _, ch := range m.channels {
		if ch.Remote() && !remoteAllowed {
			m.logger.Warn().Str("channel", ch.Name()).Msg("Notification skipped by rate limit")
			errs = append(errs, common.NewNotifierError(ch.Name(), common.NewError("rate limit reached")))
			continue
		}

		if err := m.send(ctx, ch, event); err != nil {
			m.logger.Error().Err(err).Str("channel", ch.Name()).Str("url", event.URL).Msg("Notification failed")
			errs = append(errs, common.NewNotifierError(ch.Name(), err))
			continue
		}
		m.logger.Info().Str("channel", ch.Name()).Str("url", event.URL).Msg("Notification sent")
	}

	return common.CombineErrors(errs)
}

func (m *Multi) send(ctx context.Context, ch Channel, event models.NotificationEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = common.NewError("notifier panicked: %v", r)
		}
	}()

	if ch.Remote() && m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return ch.Notify(ctx, event)
}

func (m *Multi) hasRemote() bool {
	for _, ch := range m.channels {
		if ch.Remote() {
			return true
		}
	}
	return false
}
