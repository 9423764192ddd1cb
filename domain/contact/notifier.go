package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finprofile/contact-api/internal/log"
	"github.com/finprofile/contact-api/pkg/circuitbreaker"
	"github.com/finprofile/contact-api/pkg/constants"
	apperrors "github.com/finprofile/contact-api/pkg/errors"
	"github.com/finprofile/contact-api/pkg/retry"
)

//go:generate mockgen -source=notifier.go -destination=mock_notifier.go -package=contact

// Notifier delivers a sanitized submission to the team's chat channel.
// Delivery failure (network error, non-2xx response, missing configuration)
// is returned as an error so the handler can surface a distinct failure class.
type Notifier interface {
	Notify(ctx context.Context, submission *Submission) error
}

// NotifierConfig controls outbound delivery behavior.
type NotifierConfig struct {
	WebhookURL string
	Timeout    time.Duration
	// MaxAttempts <= 1 means a single delivery attempt per submission.
	MaxAttempts int
}

type slackNotifier struct {
	webhookURL  string
	httpClient  *http.Client
	breaker     circuitbreaker.CircuitBreaker
	retryPolicy retry.RetryPolicy
	logger      *log.Logger
	now         func() time.Time
}

// NewSlackNotifier builds a notifier posting Block Kit messages to a Slack
// incoming webhook. Delivery is single-attempt unless MaxAttempts opts into
// backoff retries; a circuit breaker sheds load when the webhook is down.
func NewSlackNotifier(cfg *NotifierConfig, logger *log.Logger) Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	var policy retry.RetryPolicy = retry.NewSingleAttempt()
	if cfg.MaxAttempts > 1 {
		retryConfig := retry.DefaultConfig()
		retryConfig.MaxAttempts = cfg.MaxAttempts
		policy = retry.NewExponentialBackoff(retryConfig)
	}

	return &slackNotifier{
		webhookURL:  cfg.WebhookURL,
		httpClient:  &http.Client{Timeout: timeout},
		breaker:     circuitbreaker.NewCircuitBreaker(nil),
		retryPolicy: policy,
		logger:      logger,
		now:         time.Now,
	}
}

// Slack Block Kit payload. https://api.slack.com/block-kit
type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildSlackMessage(submission *Submission, receivedAt time.Time) *slackMessage {
	fields := []slackText{
		{Type: "mrkdwn", Text: fmt.Sprintf("*Company:*\n%s", submission.Company)},
		{Type: "mrkdwn", Text: fmt.Sprintf("*Name:*\n%s", submission.Name)},
		{Type: "mrkdwn", Text: fmt.Sprintf("*Phone:*\n%s", submission.Phone)},
		{Type: "mrkdwn", Text: fmt.Sprintf("*Email:*\n%s", submission.Email)},
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "New contact form submission"},
		},
		{Type: "section", Fields: fields},
	}

	if submission.Needs != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Needs:*\n%s", submission.Needs)},
		})
	}

	if len(submission.LookingFor) > 0 {
		tags := ""
		for i, tag := range submission.LookingFor {
			if i > 0 {
				tags += ", "
			}
			tags += tag
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Looking for:*\n%s", tags)},
		})
	}

	blocks = append(blocks, slackBlock{
		Type: "context",
		Elements: []slackText{
			{
				Type: "mrkdwn",
				Text: fmt.Sprintf("Language: %s | Submitted: %s",
					submission.Lang,
					receivedAt.UTC().Format(constants.RFC3339DateTimeFormat)),
			},
		},
	})

	return &slackMessage{Blocks: blocks}
}

func (n *slackNotifier) Notify(ctx context.Context, submission *Submission) error {
	logger := log.GetLoggerInstanceFromContext(ctx, n.logger)

	if n.webhookURL == "" {
		logger.Error("Webhook URL is not configured; cannot deliver submission")
		return apperrors.NewNotificationFailedError("notification webhook is not configured", nil)
	}

	payload, err := json.Marshal(buildSlackMessage(submission, n.now()))
	if err != nil {
		logger.Error("Failed to marshal notification payload", "error", err)
		return apperrors.NewNotificationFailedError("failed to build notification payload", err)
	}

	deliver := func() error {
		return n.breaker.Call(func() error {
			return n.post(ctx, payload)
		})
	}

	if err := n.retryPolicy.Execute(deliver); err != nil {
		logger.Error("Failed to deliver notification", "error", err)
		return apperrors.NewNotificationFailedError("failed to deliver notification", err)
	}

	logger.Info("Notification delivered")
	return nil
}

func (n *slackNotifier) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return nil
}
