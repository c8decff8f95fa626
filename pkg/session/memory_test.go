package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store, err := NewMemoryStore(16, &Config{TTL: 10 * time.Minute}, "")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testRecord("s1")))

	got, err := store.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	_, err = store.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store, err := NewMemoryStore(16, &Config{TTL: time.Minute}, "")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	record := testRecord("s1")
	record.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Create(ctx, record))

	_, err = store.Lookup(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len(), "expired record should be removed on lookup")
}

func TestMemoryStoreLookupKeepsExpiry(t *testing.T) {
	// Renewal is credential-scheme policy; the store must not rewrite
	// expiry on lookup even when its config carries Renew.
	store, err := NewMemoryStore(16, &Config{TTL: time.Hour, Renew: true}, "")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	record := testRecord("s1")
	record.ExpiresAt = time.Now().Add(time.Minute)
	require.NoError(t, store.Create(ctx, record))

	got, err := store.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, record.ExpiresAt, got.ExpiresAt)
}

func TestMemoryStoreCreateReplacesRecord(t *testing.T) {
	store, err := NewMemoryStore(16, &Config{TTL: time.Hour}, "")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	record := testRecord("s1")
	require.NoError(t, store.Create(ctx, record))

	renewed := *record
	renewed.ExpiresAt = record.ExpiresAt.Add(time.Hour)
	require.NoError(t, store.Create(ctx, &renewed))

	got, err := store.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, renewed.ExpiresAt, got.ExpiresAt)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreInvalidate(t *testing.T) {
	store, err := NewMemoryStore(16, &Config{TTL: 10 * time.Minute}, "")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testRecord("s1")))
	require.NoError(t, store.Invalidate(ctx, "s1"))

	_, err = store.Lookup(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSweep(t *testing.T) {
	store, err := NewMemoryStore(16, &Config{TTL: time.Minute}, "")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	expired := testRecord("old")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Create(ctx, expired))
	require.NoError(t, store.Create(ctx, testRecord("live")))

	store.sweep()

	assert.Equal(t, 1, store.Len())
	_, err = store.Lookup(ctx, "live")
	assert.NoError(t, err)
}

func TestMemoryStoreSweepSchedule(t *testing.T) {
	_, err := NewMemoryStore(16, &Config{TTL: time.Minute}, "not a schedule")
	require.Error(t, err)

	store, err := NewMemoryStore(16, &Config{TTL: time.Minute}, "@every 1m")
	require.NoError(t, err)
	store.Close()
}
