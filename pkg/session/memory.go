package session

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/robfig/cron/v3"
)

// MemoryStore is an in-process session store backed by an LRU cache, for
// development and tests. A cron-driven sweeper purges expired records so the
// cache does not hold dead sessions until eviction.
type MemoryStore struct {
	cache  *lru.Cache[string, *Record]
	config *Config
	cron   *cron.Cron
}

// NewMemoryStore creates an in-memory session store holding at most size
// records, with an expiry sweep on the given cron schedule (e.g. "@every 1m").
// An empty schedule disables the sweeper.
func NewMemoryStore(size int, config *Config, sweepSchedule string) (*MemoryStore, error) {
	config.Normalize()

	cache, err := lru.New[string, *Record](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	store := &MemoryStore{cache: cache, config: config}

	if sweepSchedule != "" {
		store.cron = cron.New()
		if _, err := store.cron.AddFunc(sweepSchedule, store.sweep); err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", sweepSchedule, err)
		}
		store.cron.Start()
	}

	return store, nil
}

// Lookup resolves a session id. Returns ErrNotFound on miss or expiry.
// Lookups never mutate the record; renewal is the caller's policy and goes
// through Create.
func (s *MemoryStore) Lookup(_ context.Context, id string) (*Record, error) {
	record, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if record.Expired(time.Now()) {
		s.cache.Remove(id)
		return nil, ErrNotFound
	}
	return record, nil
}

// Create stores a session record
func (s *MemoryStore) Create(_ context.Context, record *Record) error {
	if record.ID == "" {
		return fmt.Errorf("session record requires an id")
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = time.Now().Add(s.config.TTL)
	}
	s.cache.Add(record.ID, record)
	return nil
}

// Invalidate removes a session
func (s *MemoryStore) Invalidate(_ context.Context, id string) error {
	s.cache.Remove(id)
	return nil
}

// Len returns the number of cached sessions, expired ones included
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Close stops the sweeper
func (s *MemoryStore) Close() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *MemoryStore) sweep() {
	now := time.Now()
	for _, id := range s.cache.Keys() {
		if record, ok := s.cache.Peek(id); ok && record.Expired(now) {
			s.cache.Remove(id)
		}
	}
}
