package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/metrics"
)

const (
	colorRed = 0xE74C3C

	// Discord rejects embed descriptions above 4096 characters.
	maxDescriptionRunes = 4000
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	shop       string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// WithShop names the shop in messages whose failure does not carry one.
func WithShop(shop string) DiscordOption {
	return func(d *DiscordNotifier) {
		d.shop = shop
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendBuildFailure posts the failure as a single red embed.
func (d *DiscordNotifier) SendBuildFailure(ctx context.Context, f *BuildFailure) error {
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{d.buildEmbed(f)},
	}
	return d.post(ctx, payload)
}

func (d *DiscordNotifier) buildEmbed(f *BuildFailure) discordEmbed {
	shop := f.Shop
	if shop == "" {
		shop = d.shop
	}

	title := "Feed build failed"
	if shop != "" {
		title += ": " + shop
	}

	lastSuccess := "never"
	if !f.LastSuccess.IsZero() {
		lastSuccess = f.LastSuccess.UTC().Format(time.RFC3339)
	}

	embed := discordEmbed{
		Title:       title,
		Color:       colorRed,
		Description: clip(f.Error, maxDescriptionRunes),
		Fields: []discordEmbedField{
			{Name: "Last success", Value: lastSuccess, Inline: true},
		},
	}
	if !f.FailedAt.IsZero() {
		embed.Timestamp = f.FailedAt.UTC().Format(time.RFC3339)
	}

	return embed
}

func clip(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
