package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aleister1102/sitewatch/internal/httpclient"
	"github.com/aleister1102/sitewatch/internal/models"
	"github.com/rs/zerolog"
)

// Discord formatting constants
const (
	DiscordUsername    = "sitewatch"
	UpdateEmbedColor   = 0x6F42C1 // Purple for monitoring
	maxDiscordBodyRead = 4096
)

// DiscordMessagePayload represents the JSON payload sent to a Discord webhook.
type DiscordMessagePayload struct {
	Content  string         `json:"content,omitempty"`
	Username string         `json:"username,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed represents a Discord embed object.
type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"` // ISO8601 timestamp
	Color       int                 `json:"color,omitempty"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
}

// DiscordEmbedFooter represents the footer of an embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// DiscordEmbedField represents a field in an embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordNotifier posts update events to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *httpclient.HTTPClient
	logger     zerolog.Logger
}

// NewDiscordNotifier creates a notifier for webhookURL
func NewDiscordNotifier(webhookURL string, client *httpclient.HTTPClient, logger zerolog.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client:     client,
		logger:     logger.With().Str("component", "DiscordNotifier").Logger(),
	}
}

func (dn *DiscordNotifier) Name() string { return "discord" }

func (dn *DiscordNotifier) Remote() bool { return true }

// Notify posts one embed describing event
func (dn *DiscordNotifier) Notify(ctx context.Context, event models.NotificationEvent) error {
	payloadJSON, err := json.Marshal(BuildUpdatePayload(event))
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dn.webhookURL, bytes.NewReader(payloadJSON))
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := dn.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiscordBodyRead))
		dn.logger.Error().Int("status_code", resp.StatusCode).Str("response_body", string(respBody)).Msg("Discord notification failed")
		return fmt.Errorf("discord webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	dn.logger.Debug().Int("status_code", resp.StatusCode).Msg("Discord notification sent")
	return nil
}

// BuildUpdatePayload renders event as a webhook message
func BuildUpdatePayload(event models.NotificationEvent) DiscordMessagePayload {
	fields := []DiscordEmbedField{
		{Name: "Update time", Value: event.NewTimestamp.Format(), Inline: true},
	}
	if event.Previous.IsSet() {
		fields = append(fields, DiscordEmbedField{Name: "Previous", Value: event.Previous.Format(), Inline: true})
	}

	return DiscordMessagePayload{
		Username: DiscordUsername,
		Embeds: []DiscordEmbed{{
			Title:       "Site updated",
			Description: event.URL,
			URL:         event.URL,
			Timestamp:   event.NewTimestamp.Time().UTC().Format(time.RFC3339),
			Color:       UpdateEmbedColor,
			Footer:      &DiscordEmbedFooter{Text: DiscordUsername},
			Fields:      fields,
		}},
	}
}
