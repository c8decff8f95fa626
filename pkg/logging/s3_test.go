package logging

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*params.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) decodeAll(t *testing.T) []*Entry {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	var entries []*Entry
	for _, body := range f.objects {
		gz, err := gzip.NewReader(bytes.NewReader(body))
		require.NoError(t, err)
		dec := json.NewDecoder(gz)
		for dec.More() {
			var e Entry
			require.NoError(t, dec.Decode(&e))
			entries = append(entries, &e)
		}
	}
	return entries
}

func TestS3WriterBatchUpload(t *testing.T) {
	fake := newFakeS3()
	w, err := NewS3Writer(fake, S3WriterConfig{
		Bucket:    "audit-bucket",
		Prefix:    "audit",
		BatchSize: 2,
		Interval:  time.Hour, // only explicit flushes in this test
	})
	require.NoError(t, err)

	require.NoError(t, w.Write(context.Background(), NewEntry(EntryTypeAuthRejected)))
	assert.Empty(t, fake.objects, "batch below threshold should stay buffered")

	require.NoError(t, w.Write(context.Background(), NewEntry(EntryTypeAuthRejected)))
	assert.Len(t, fake.decodeAll(t), 2, "full batch should upload")

	require.NoError(t, w.Shutdown(context.Background()))
}

func TestS3WriterShutdownFlushes(t *testing.T) {
	fake := newFakeS3()
	w, err := NewS3Writer(fake, S3WriterConfig{
		Bucket:   "audit-bucket",
		Prefix:   "audit",
		Interval: time.Hour,
	})
	require.NoError(t, err)

	entry := NewAuthRejected("club", "backend-service", "", "source_not_allowed", "unknown source", nil)
	require.NoError(t, w.Write(context.Background(), entry))
	require.NoError(t, w.Shutdown(context.Background()))

	entries := fake.decodeAll(t)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, "source_not_allowed", entries[0].Reason)
}

func TestS3WriterRequiresBucket(t *testing.T) {
	_, err := NewS3Writer(newFakeS3(), S3WriterConfig{})
	assert.Error(t, err)
}
