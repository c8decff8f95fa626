package session

import (
	"context"
	"errors"
	"time"
)

// DefaultHeaderName is the header carrying the session identifier
const DefaultHeaderName = "X-Session-Id"

// ErrNotFound is returned by Lookup when the session does not exist or has
// expired
var ErrNotFound = errors.New("session not found")

// Config controls session behavior for a project. One Config instance is
// shared by reference across all of a project's source configs, making it the
// single source of truth for session behavior (see auth.NewProjectConfig).
type Config struct {
	// HeaderName is the request header carrying the session id
	HeaderName string `yaml:"header"`
	// TTL is the session validity window
	TTL time.Duration `yaml:"ttl"`
	// Renew extends the TTL on every successful authentication. Applied by
	// the session-token credential scheme; stores never renew on their own.
	Renew bool `yaml:"renew"`
}

// Normalize fills in defaults
func (c *Config) Normalize() {
	if c.HeaderName == "" {
		c.HeaderName = DefaultHeaderName
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Minute
	}
}

// Record is a previously established user session. Stored records are never
// mutated in place; renewal stores a replacement under the same id.
type Record struct {
	ID        string    `json:"id"`
	Project   string    `json:"project"`
	Source    string    `json:"source"`
	UserID    string    `json:"user_id"`
	UserType  string    `json:"user_type"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its validity window
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Store resolves session identifiers to established user sessions.
// Create doubles as an upsert: login flows use it to mint sessions and the
// session-token scheme uses it to persist renewals.
type Store interface {
	Lookup(ctx context.Context, id string) (*Record, error)
	Create(ctx context.Context, record *Record) error
	Invalidate(ctx context.Context, id string) error
}
