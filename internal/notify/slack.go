// Package notify adapts the automation engine's send_notification and
// routing_conflict actions onto Slack, as a thin wrapper over slack-go.
package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/codeready-toolchain/crmcore/internal/config"
	"github.com/codeready-toolchain/crmcore/internal/models"
)

// SlackNotifier posts automation messages to a single configured channel.
type SlackNotifier struct {
	client  *slack.Client
	channel string
	dashURL string
}

// NewSlackNotifier builds a notifier from SlackConfig. A zero-value Token
// yields a notifier whose sends are no-ops, so local/dev runs without a
// Slack workspace don't need a conditional at every call site.
func NewSlackNotifier(cfg config.SlackConfig) *SlackNotifier {
	var client *slack.Client
	if cfg.Token != "" {
		client = slack.New(cfg.Token)
	}
	return &SlackNotifier{client: client, channel: cfg.Channel, dashURL: cfg.DashboardURL}
}

// SendNotification posts a plain message, the send_notification action's
// effect.
func (n *SlackNotifier) SendNotification(ctx context.Context, channel, message string) error {
	if n.client == nil {
		return nil
	}
	if channel == "" {
		channel = n.channel
	}
	_, _, err := n.client.PostMessageContext(ctx, channel, slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}

// RoutingConflict posts the manual-review alert routing produces when a
// lead's top two intent scores are within the conflict margin.
func (n *SlackNotifier) RoutingConflict(ctx context.Context, lead *models.Lead, summary models.IntentSummary) error {
	msg := fmt.Sprintf(
		"Routing conflict for lead %s (%s): research=%d b2b=%d co_creation=%d. Needs manual review.",
		lead.ID, lead.Email, summary.Research, summary.B2B, summary.CoCreation,
	)
	if n.dashURL != "" {
		msg += " " + n.dashURL + "/leads/" + lead.ID
	}
	return n.SendNotification(ctx, n.channel, msg)
}
