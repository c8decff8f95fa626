package logging

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Writer consumes log entries. Implementations must be safe for concurrent
// Write calls from many request goroutines and must serialize Shutdown
// against in-flight writes. Shutdown is invoked once during process teardown
// and must flush or explicitly drop queued entries.
type Writer interface {
	Write(ctx context.Context, entry *Entry) error
	Shutdown(ctx context.Context) error
}

// MultiWriter fans an entry out to several writers. One failing sink never
// hides the entry from the others.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a writer that delivers every entry to all of the
// given writers
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write delivers the entry to every writer, returning the first error after
// all deliveries were attempted
func (m *MultiWriter) Write(ctx context.Context, entry *Entry) error {
	var firstErr error
	for _, w := range m.writers {
		if err := w.Write(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Shutdown shuts down all writers concurrently
func (m *MultiWriter) Shutdown(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range m.writers {
		w := w
		g.Go(func() error {
			if err := w.Shutdown(ctx); err != nil {
				return fmt.Errorf("writer shutdown: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
