package integrations

import (
	"context"

	"github.com/slack-go/slack"
)

// Slack posts to an incoming webhook. An empty URL turns it into a no-op.
type Slack struct {
	webhookURL string
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{webhookURL: webhookURL}
}

func (s *Slack) Notify(ctx context.Context, text string) error {
	if s == nil || s.webhookURL == "" {
		return nil
	}
	return slack.PostWebhookContext(ctx, s.webhookURL, &slack.WebhookMessage{Text: text})
}
