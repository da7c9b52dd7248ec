package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goslack "github.com/slack-go/slack"

	"github.com/chainwatch/chainwatch/pkg/config"
	"github.com/chainwatch/chainwatch/pkg/models"
	"github.com/chainwatch/chainwatch/pkg/pipeline"
	"github.com/chainwatch/chainwatch/pkg/store"
	"github.com/chainwatch/chainwatch/pkg/stream"
)

var bandEmoji = map[string]string{
	"critical": ":rotating_light:",
	"high":     ":red_circle:",
	"medium":   ":large_orange_circle:",
	"low":      ":large_yellow_circle:",
}

// Notifier consumes the new_alerts stream and posts each alert to a Slack
// channel.
type Notifier struct {
	store   store.Store
	api     *goslack.Client
	channel string
	cfg     config.SlackConfig
}

// NewNotifier builds a Slack notifier.
func NewNotifier(st store.Store, token string, cfg config.SlackConfig) *Notifier {
	return &Notifier{
		store:   st,
		api:     goslack.New(token),
		channel: cfg.Channel,
		cfg:     cfg,
	}
}

// NewNotifierWithAPIURL targets a custom API URL. Useful for testing with
// a mock server.
func NewNotifierWithAPIURL(st store.Store, token, apiURL string, cfg config.SlackConfig) *Notifier {
	n := NewNotifier(st, token, cfg)
	n.api = goslack.New(token, goslack.OptionAPIURL(apiURL))
	return n
}

// Handle processes one new_alerts entry.
func (n *Notifier) Handle(ctx context.Context, entry stream.Entry) error {
	alertID := entry.Fields["alert_id"]
	if alertID == "" {
		return pipeline.Permanent(errors.New("entry missing alert_id"))
	}

	alert, err := n.store.GetAlert(ctx, alertID)
	if errors.Is(err, store.ErrNotFound) {
		return pipeline.Permanent(fmt.Errorf("alert %s not found", alertID))
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.NotificationTimeout())
	defer cancel()

	_, _, err = n.api.PostMessageContext(ctx, n.channel,
		goslack.MsgOptionBlocks(BuildAlertMessage(alert)...))
	if err != nil {
		return fmt.Errorf("chat.postMessage failed: %w", err)
	}

	slog.Info("Alert notification sent", "alert_id", alertID, "channel", n.channel)
	return nil
}

// BuildAlertMessage creates Block Kit blocks for an alert notification.
func BuildAlertMessage(alert *models.Alert) []goslack.Block {
	emoji := bandEmoji[string(alert.SeverityBand)]
	if emoji == "" {
		emoji = ":warning:"
	}

	header := fmt.Sprintf("%s *%s*\nRisk score: *%.2f* (%s)",
		emoji, alert.Title, alert.RiskScore, alert.SeverityBand)

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, header, false, false),
			nil, nil,
		),
	}

	var details []string
	if len(alert.AffectedSuppliers) > 0 {
		details = append(details, "*Affected suppliers:* "+strings.Join(alert.AffectedSuppliers, ", "))
	}
	if len(alert.AffectedMaterials) > 0 {
		details = append(details, "*Materials:* "+strings.Join(alert.AffectedMaterials, ", "))
	}
	if alert.Description != "" {
		details = append(details, alert.Description)
	}
	if len(details) > 0 {
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, strings.Join(details, "\n"), false, false),
			nil, nil,
		))
	}

	if len(alert.Alternates) > 0 {
		var b strings.Builder
		b.WriteString("*Alternate suppliers:*")
		for _, alt := range alert.Alternates {
			fmt.Fprintf(&b, "\n• %s (%s): fitness %.1f/10, lead time %dw",
				alt.Name, alt.Country, alt.Score, alt.LeadTimeWeeks)
		}
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, b.String(), false, false),
			nil, nil,
		))
	}

	if alert.Recommendation != "" {
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, "*Recommendation:* "+alert.Recommendation, false, false),
			nil, nil,
		))
	}

	return blocks
}
