package notification

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// MockSender logs messages instead of delivering them. Used in development
// and tests; it accepts one receiver per request so batching paths get
// exercised even locally.
type MockSender struct {
	logger *logrus.Entry

	mu   sync.Mutex
	sent []*Message
}

// NewMockSender creates a mock channel sender
func NewMockSender() *MockSender {
	return &MockSender{
		logger: logrus.WithField("channel", "mock"),
	}
}

// Name returns the channel name
func (s *MockSender) Name() string { return "mock" }

// MaxReceiversPerRequest returns 1
func (s *MockSender) MaxReceiversPerRequest() int { return 1 }

// Send records the message and logs it
func (s *MockSender) Send(_ context.Context, message *Message) error {
	if len(message.Receivers) > s.MaxReceiversPerRequest() {
		return ErrTooManyReceivers(len(message.Receivers), s.MaxReceiversPerRequest())
	}

	s.logger.WithFields(logrus.Fields{
		"project":   message.Project,
		"event":     message.Event,
		"receivers": message.Receivers,
	}).Debug("sendNotification")
	s.logger.Debugf("content: %s / %s", message.Title, message.Body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, message)
	return nil
}

// Sent returns the messages recorded so far
func (s *MockSender) Sent() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.sent))
	copy(out, s.sent)
	return out
}
