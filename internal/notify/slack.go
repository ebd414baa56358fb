package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/lighthouse-audit/internal/evaluation"
	"github.com/jonathan/lighthouse-audit/internal/types"
	"github.com/slack-go/slack"
)

const (
	// DefaultColor is the attachment side bar colour.
	DefaultColor = "#ffdb8e"
	// DefaultFooterIcon is the icon shown next to the attachment footer.
	DefaultFooterIcon = "https://platform.slack-edge.com/img/default_application_icon.png"
	// DefaultTimeout bounds a webhook request.
	DefaultTimeout = 10 * time.Second
)

// SlackOptions configures a Slack incoming webhook.
type SlackOptions struct {
	WebhookURL string
	Channel    string
	Username   string
	Color      string
	FooterIcon string
	Timeout    time.Duration
}

// Slack posts alerts to a Slack incoming webhook as a single attachment.
type Slack struct {
	opts   SlackOptions
	client *http.Client
}

// NewSlack creates a Slack notifier.
func NewSlack(opts SlackOptions) *Slack {
	if opts.Color == "" {
		opts.Color = DefaultColor
	}
	if opts.FooterIcon == "" {
		opts.FooterIcon = DefaultFooterIcon
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Slack{opts: opts, client: &http.Client{Timeout: opts.Timeout}}
}

// Send delivers the alert. Any transport failure or non-200 response is a DeliveryError.
func (s *Slack) Send(ctx context.Context, payload *types.AlertPayload) error {
	if s.opts.WebhookURL == "" {
		return &DeliveryError{Message: "webhook URL is not configured"}
	}

	err := slack.PostWebhookCustomHTTPContext(ctx, s.opts.WebhookURL, s.client, s.message(payload))
	if err == nil {
		return nil
	}

	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		return &DeliveryError{StatusCode: statusErr.Code, Message: "webhook rejected alert", Cause: err}
	}
	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return &DeliveryError{
			StatusCode: http.StatusTooManyRequests,
			Message:    fmt.Sprintf("webhook rate limited, retry after %s", rateErr.RetryAfter),
			Cause:      err,
		}
	}
	return &DeliveryError{Message: "webhook request failed", Cause: err}
}

func (s *Slack) message(p *types.AlertPayload) *slack.WebhookMessage {
	fields := make([]slack.AttachmentField, 0, len(p.Fields))
	for _, f := range p.Fields {
		value := "n/a"
		if !f.Missing {
			value = evaluation.FormatPercent(f.Percent) + "%"
		}
		fields = append(fields, slack.AttachmentField{Title: f.Title, Value: value, Short: true})
	}

	footer := "Lighthouse Tests | " + p.ReportName
	if p.RunID != "" {
		footer += " | run " + p.RunID
	}

	return &slack.WebhookMessage{
		Channel:  s.opts.Channel,
		Username: s.opts.Username,
		Attachments: []slack.Attachment{{
			Pretext:    Pretext(p),
			Fallback:   "Nothing to show here",
			Color:      s.opts.Color,
			Fields:     fields,
			Footer:     footer,
			FooterIcon: s.opts.FooterIcon,
		}},
	}
}

// Pretext renders the alert headline in Slack mrkdwn, linking the report name to the page.
func Pretext(p *types.AlertPayload) string {
	return fmt.Sprintf("*%s:* _%s_ score for <%s|%s> below %s%%",
		p.AppName, p.Category.Title(), p.PageURL, p.ReportName,
		evaluation.FormatPercent(types.Percent(p.Baseline)))
}
