package notification

import (
	"context"
	"time"

	"github.com/platinummonkey/gatehouse/pkg/async"
	"github.com/platinummonkey/gatehouse/pkg/logging"
)

// Dispatcher delivers notifications through a channel sender without ever
// exceeding the sender's receiver bound: callers hand it a message with any
// number of receivers and the dispatcher splits it into conforming batches.
//
// Delivery runs on a worker pool so callers never wait on the channel, and
// every attempt, success or failure, is mirrored into a send-log entry.
type Dispatcher struct {
	sender ChannelSender
	writer logging.Writer
	pool   *async.WorkerPool
}

// NewDispatcher creates a dispatcher over the sender. The writer receives
// one send-log entry per delivery attempt; it may be nil to disable send
// logging.
func NewDispatcher(ctx context.Context, sender ChannelSender, writer logging.Writer, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	return &Dispatcher{
		sender: sender,
		writer: writer,
		pool:   async.NewWorkerPool(ctx, workers, "notification dispatch", 30*time.Second),
	}
}

// Dispatch splits the message into batches within the sender's receiver
// bound and queues them for asynchronous delivery. The error reports queue
// submission problems only; delivery outcomes go to the send log.
func (d *Dispatcher) Dispatch(_ context.Context, message *Message) error {
	for _, batch := range d.split(message) {
		batch := batch
		if err := d.pool.Submit(func(ctx context.Context) error {
			d.deliver(ctx, batch)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// split partitions the message by the sender's MaxReceiversPerRequest
func (d *Dispatcher) split(message *Message) []*Message {
	max := d.sender.MaxReceiversPerRequest()
	if len(message.Receivers) <= max {
		return []*Message{message}
	}

	var batches []*Message
	for start := 0; start < len(message.Receivers); start += max {
		end := start + max
		if end > len(message.Receivers) {
			end = len(message.Receivers)
		}
		batch := *message
		batch.Receivers = message.Receivers[start:end]
		batches = append(batches, &batch)
	}
	return batches
}

func (d *Dispatcher) deliver(ctx context.Context, message *Message) {
	err := d.sender.Send(ctx, message)

	if d.writer == nil {
		return
	}

	entry := logging.NewNotificationSent(
		message.Project, message.Event, d.sender.Name(),
		len(message.Receivers), err == nil, errMessage(err))
	// Send-log trouble is the writer's problem, never the dispatcher's.
	_ = d.writer.Write(ctx, entry)
}

// Shutdown drains queued deliveries
func (d *Dispatcher) Shutdown(timeout time.Duration) error {
	return d.pool.Shutdown(timeout)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
