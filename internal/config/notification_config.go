package config

import "time"

// NotificationConfig defines the channels used when an update is detected
type NotificationConfig struct {
	Bell              bool   `json:"bell" yaml:"bell"`
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	TelegramToken     string `json:"telegram_token,omitempty" yaml:"telegram_token,omitempty"`
	TelegramChatID    int64  `json:"telegram_chat_id,omitempty" yaml:"telegram_chat_id,omitempty" validate:"required_with=TelegramToken"`
	TelegramAPIURL    string `json:"telegram_api_url,omitempty" yaml:"telegram_api_url,omitempty" validate:"omitempty,url"`
	RatePerMinute     int    `json:"rate_per_minute,omitempty" yaml:"rate_per_minute,omitempty" validate:"omitempty,min=1"`
	TimeoutSeconds    int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		Bell:           DefaultNotificationBell,
		RatePerMinute:  DefaultNotificationRatePerMinute,
		TimeoutSeconds: DefaultNotificationTimeoutSeconds,
	}
}

// Timeout returns the per-send budget for remote channels.
func (c NotificationConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultNotificationTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
