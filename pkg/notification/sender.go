package notification

import (
	"context"
	"fmt"
)

// Message is one notification to a set of receivers. Content is resolved
// through the catalog before dispatch.
type Message struct {
	Project   string   `json:"project"`
	Event     string   `json:"event"`
	Receivers []string `json:"receivers"`
	Lang      string   `json:"lang"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
}

// ChannelSender delivers messages over one channel (push, email, webhook).
// MaxReceiversPerRequest is a capability constraint of the channel: callers
// must batch receivers accordingly, and exceeding it is a caller error, not
// a sender failure.
type ChannelSender interface {
	Name() string
	Send(ctx context.Context, message *Message) error
	MaxReceiversPerRequest() int
}

// ErrTooManyReceivers is returned when a message exceeds the sender's
// receiver bound without going through the dispatcher's batching
func ErrTooManyReceivers(got, max int) error {
	return fmt.Errorf("message has %d receivers, channel accepts at most %d per request", got, max)
}
