package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// WebhookSender delivers messages as JSON POSTs to a configured endpoint
type WebhookSender struct {
	url          string
	maxReceivers int
	client       *http.Client
	logger       *logrus.Entry
}

// NewWebhookSender creates a webhook channel sender. maxReceivers <= 0
// defaults to 100.
func NewWebhookSender(url string, maxReceivers int) *WebhookSender {
	if maxReceivers <= 0 {
		maxReceivers = 100
	}
	return &WebhookSender{
		url:          url,
		maxReceivers: maxReceivers,
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logrus.WithField("channel", "webhook"),
	}
}

// Name returns the channel name
func (s *WebhookSender) Name() string { return "webhook" }

// MaxReceiversPerRequest returns the configured receiver bound
func (s *WebhookSender) MaxReceiversPerRequest() int { return s.maxReceivers }

// Send posts the message to the webhook endpoint
func (s *WebhookSender) Send(ctx context.Context, message *Message) error {
	if len(message.Receivers) > s.maxReceivers {
		return ErrTooManyReceivers(len(message.Receivers), s.maxReceivers)
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	s.logger.WithField("event", message.Event).Debug("webhook delivered")
	return nil
}
