package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig holds Redis connection settings for the session store
type RedisConfig struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
}

// RedisStore is a session store backed by Redis. Sessions are stored as JSON
// with a TTL so Redis expires them without a sweeper.
type RedisStore struct {
	client *redis.Client
	config *Config
}

// NewRedisClient creates a Redis client from config and verifies connectivity
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB >= 0 {
		opts.DB = cfg.DB
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, config *Config) *RedisStore {
	config.Normalize()
	return &RedisStore{client: client, config: config}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Lookup resolves a session id. Returns ErrNotFound on miss or expiry.
// Lookups never mutate the record; renewal is the caller's policy and goes
// through Create.
func (s *RedisStore) Lookup(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		// Corrupt data is unusable; drop it so the next lookup is a clean miss.
		s.client.Del(ctx, sessionKey(id))
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if record.Expired(time.Now()) {
		s.client.Del(ctx, sessionKey(id))
		return nil, ErrNotFound
	}

	return &record, nil
}

// Create stores a session record with the configured TTL
func (s *RedisStore) Create(ctx context.Context, record *Record) error {
	if record.ID == "" {
		return fmt.Errorf("session record requires an id")
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = time.Now().Add(s.config.TTL)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := s.client.Set(ctx, sessionKey(record.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate removes a session
func (s *RedisStore) Invalidate(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
