// Package notify posts lost-and-found reports to a Slack channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"promptdesk-backend/internal/models"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("slack notifier is not configured")

// Notifier announces newly reported items.
type Notifier interface {
	NotifyItem(ctx context.Context, item *models.LostItem) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) NotifyItem(context.Context, *models.LostItem) error { return nil }

// SlackNotifier sends item reports to one channel with a bot token.
type SlackNotifier struct {
	client    *slack.Client
	channelID string
	logger    *zap.Logger
}

// NewSlackNotifier returns ErrNotConfigured when the token or channel is
// empty. apiURL overrides slack.com and may be empty.
func NewSlackNotifier(botToken, channelID, apiURL string, logger *zap.Logger) (*SlackNotifier, error) {
	if botToken == "" || channelID == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &SlackNotifier{
		client:    slack.New(botToken, opts...),
		channelID: channelID,
		logger:    logger.Named("notify.slack"),
	}, nil
}

// SendMessage posts text to the configured channel. If threadTs is provided,
// the message is sent as a reply in that thread.
func (n *SlackNotifier) SendMessage(ctx context.Context, text, threadTs string) (string, error) {
	msgOptions := []slack.MsgOption{
		slack.MsgOptionText(text, false),
	}
	if threadTs != "" {
		msgOptions = append(msgOptions, slack.MsgOptionTS(threadTs))
	}

	_, ts, err := n.client.PostMessageContext(ctx, n.channelID, msgOptions...)
	if err != nil {
		return "", fmt.Errorf("failed to post message to Slack channel %s: %w", n.channelID, err)
	}
	return ts, nil
}

func (n *SlackNotifier) NotifyItem(ctx context.Context, item *models.LostItem) error {
	ts, err := n.SendMessage(ctx, FormatItem(item), "")
	if err != nil {
		return err
	}
	n.logger.Debug("Posted item report", zap.String("item_id", item.ID.String()), zap.String("ts", ts))
	return nil
}

// FormatItem renders an item report as one Slack mrkdwn line.
func FormatItem(item *models.LostItem) string {
	verb := "Lost"
	if item.Type == models.ItemTypeFound {
		verb = "Found"
	}
	parts := []string{item.Category}
	for _, s := range []string{item.Color, item.Brand, item.Model} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return fmt.Sprintf("*%s* in %s: %s (%s)", verb, item.City, strings.Join(parts, " "), item.Description)
}
