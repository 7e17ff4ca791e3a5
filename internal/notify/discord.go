// internal/notify/discord.go
package notify

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// DiscordWebhook delivers plain-content messages to a Discord channel
// webhook. Delivery is best-effort; callers decide what to do with
// errors (the dispatcher swallows them).
type DiscordWebhook struct {
	session *discordgo.Session
	id      string
	token   string
}

// NewDiscordWebhook parses a full webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token>. Returns nil when the
// URL is empty so notifications become a no-op in dev environments.
func NewDiscordWebhook(webhookURL string) (*DiscordWebhook, error) {
	if webhookURL == "" {
		return nil, nil
	}

	parts := strings.Split(strings.TrimRight(webhookURL, "/"), "/")
	if len(parts) < 2 {
		return nil, fmt.Errorf("malformed webhook URL")
	}
	id, token := parts[len(parts)-2], parts[len(parts)-1]
	if id == "" || token == "" {
		return nil, fmt.Errorf("malformed webhook URL")
	}

	// Webhook execution authenticates through the webhook token itself,
	// so the session carries no bot token.
	session, err := discordgo.New("")
	if err != nil {
		return nil, err
	}

	return &DiscordWebhook{session: session, id: id, token: token}, nil
}

// Send posts a message through the webhook.
func (w *DiscordWebhook) Send(content string) error {
	if w == nil {
		return nil
	}
	_, err := w.session.WebhookExecute(w.id, w.token, false, &discordgo.WebhookParams{
		Content: content,
	})
	return err
}
