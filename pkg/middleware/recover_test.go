package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatehouse/pkg/logging"
	"github.com/platinummonkey/gatehouse/pkg/observability"
)

type recordingWriter struct {
	mu      sync.Mutex
	entries []*logging.Entry
}

func (w *recordingWriter) Write(_ context.Context, entry *logging.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
	return nil
}

func (w *recordingWriter) Shutdown(_ context.Context) error { return nil }

func (w *recordingWriter) all() []*logging.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*logging.Entry, len(w.entries))
	copy(out, w.entries)
	return out
}

func TestRecovererAnswersWithEnvelope(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	writer := &recordingWriter{}

	h := Recoverer(logger, writer)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/explode", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")

	// The event-log write is detached from the request.
	require.Eventually(t, func() bool { return len(writer.all()) == 1 },
		time.Second, 10*time.Millisecond)
	entry := writer.all()[0]
	assert.Equal(t, logging.EntryTypeRequestError, entry.Type)
	assert.Contains(t, entry.Message, "boom")
}

func TestRecovererAttachesLogger(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	var seen *observability.Logger
	h := Recoverer(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fine", nil))

	assert.Same(t, logger, seen)
}

func TestRecovererPassesThrough(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	writer := &recordingWriter{}

	h := Recoverer(logger, writer)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fine", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, writer.entries)
}
