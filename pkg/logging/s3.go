package logging

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3API is the subset of the S3 client the writer needs, for test fakes
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3WriterConfig configures the S3 writer
type S3WriterConfig struct {
	Bucket    string
	Prefix    string        // Key prefix, e.g. "audit"
	BatchSize int           // Entries per object (default: 256)
	Interval  time.Duration // Max time a batch may wait before upload (default: 30s)
}

// S3Writer batches entries into gzip-compressed JSON-lines objects and
// uploads them to S3. It serves as the remote log service sink.
type S3Writer struct {
	client s3API
	config S3WriterConfig

	mu      sync.Mutex
	pending []*Entry
	ticker  *time.Ticker
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

// NewS3Writer creates an S3-backed log writer
func NewS3Writer(client s3API, config S3WriterConfig) (*S3Writer, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("s3 writer requires a bucket")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 256
	}
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}

	w := &S3Writer{
		client: client,
		config: config,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	w.ticker = time.NewTicker(config.Interval)
	go w.flushLoop()
	return w, nil
}

// Write buffers the entry; a full batch is uploaded inline
func (w *S3Writer) Write(ctx context.Context, entry *Entry) error {
	w.mu.Lock()
	w.pending = append(w.pending, entry)
	var batch []*Entry
	if len(w.pending) >= w.config.BatchSize {
		batch = w.pending
		w.pending = nil
	}
	w.mu.Unlock()

	if batch != nil {
		return w.upload(ctx, batch)
	}
	return nil
}

// Flush uploads any buffered entries immediately
func (w *S3Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return w.upload(ctx, batch)
}

// Shutdown stops the flush loop and uploads the remaining buffer
func (w *S3Writer) Shutdown(ctx context.Context) error {
	w.once.Do(func() {
		close(w.stopCh)
		w.ticker.Stop()
	})
	<-w.doneCh
	return w.Flush(ctx)
}

func (w *S3Writer) flushLoop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := w.Flush(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "s3 log flush failed: %v\n", err)
			}
			cancel()
		case <-w.stopCh:
			return
		}
	}
}

func (w *S3Writer) upload(ctx context.Context, batch []*Entry) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, entry := range batch {
		if err := enc.Encode(entry); err != nil {
			gz.Close()
			return fmt.Errorf("failed to encode log entry: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to compress log batch: %w", err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s/%s/%s.log.gz",
		w.config.Prefix, now.Format("2006/01/02"), uuid.New().String())

	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(w.config.Bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentType:     aws.String("application/x-ndjson"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload log batch: %w", err)
	}
	return nil
}
