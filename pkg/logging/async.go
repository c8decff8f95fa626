package logging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/platinummonkey/gatehouse/pkg/observability"
)

const (
	defaultQueueSize    = 1024
	defaultWriteTimeout = 5 * time.Second
)

// AsyncWriter decorates another Writer with a bounded queue and a dedicated
// drain goroutine. Write enqueues and returns immediately, so the request
// path never waits on sink delivery or acknowledgement.
//
// Backpressure policy: when the queue is full the OLDEST queued entry is
// dropped to make room for the new one, and the drop is counted. Blocking
// the producer was rejected because the producers are request goroutines.
type AsyncWriter struct {
	next         Writer
	logger       *observability.Logger
	queue        chan *Entry
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
	mu           sync.RWMutex
	closed       bool
	dropped      atomic.Uint64
	writeTimeout time.Duration
}

// NewAsyncWriter wraps next with a bounded async queue. queueSize <= 0 uses
// the default.
func NewAsyncWriter(next Writer, queueSize int, logger *observability.Logger) *AsyncWriter {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	w := &AsyncWriter{
		next:         next,
		logger:       logger,
		queue:        make(chan *Entry, queueSize),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		writeTimeout: defaultWriteTimeout,
	}
	go w.drain()
	return w
}

// Write enqueues the entry and returns immediately. It never blocks and
// never propagates sink errors to the caller.
func (w *AsyncWriter) Write(_ context.Context, entry *Entry) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.dropped.Add(1)
		return fmt.Errorf("async writer shut down, entry dropped")
	}

	select {
	case w.queue <- entry:
		return nil
	default:
	}

	// Queue full: drop the oldest entry to make room.
	select {
	case <-w.queue:
		w.dropped.Add(1)
	default:
	}

	select {
	case w.queue <- entry:
	default:
		w.dropped.Add(1)
	}
	return nil
}

// Dropped returns the number of entries dropped so far
func (w *AsyncWriter) Dropped() uint64 {
	return w.dropped.Load()
}

// Shutdown stops intake, drains the queue into the wrapped writer, then
// shuts the wrapped writer down. Entries that cannot be drained before ctx
// expires are dropped with a count logged.
func (w *AsyncWriter) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.stopOnce.Do(func() { close(w.stopCh) })

	select {
	case <-w.doneCh:
	case <-ctx.Done():
		remaining := len(w.queue)
		w.dropped.Add(uint64(remaining))
		w.logger.Warnf("async writer drain timed out, dropping %d queued entries", remaining)
	}

	if n := w.dropped.Load(); n > 0 {
		w.logger.Warnf("async writer dropped %d entries in total", n)
	}

	return w.next.Shutdown(ctx)
}

func (w *AsyncWriter) drain() {
	defer close(w.doneCh)

	for {
		select {
		case entry := <-w.queue:
			w.deliver(entry)
		case <-w.stopCh:
			for {
				select {
				case entry := <-w.queue:
					w.deliver(entry)
				default:
					return
				}
			}
		}
	}
}

func (w *AsyncWriter) deliver(entry *Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()

	if err := w.next.Write(ctx, entry); err != nil {
		// Delivery is best-effort; self-log and move on. Retrying is the
		// sink's own responsibility, not ours.
		w.logger.WithError(err).WithField("entry_id", entry.ID).Error("log entry delivery failed")
	}
}
