package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/gatehouse/pkg/rbac"
	"github.com/platinummonkey/gatehouse/pkg/session"
)

// sessionTokenScheme authenticates end users by resolving an opaque session
// identifier through the session store. The engine only reads sessions;
// creation and invalidation are owned by login flows elsewhere.
type sessionTokenScheme struct {
	store      session.Store
	headerName string
}

// NewSessionTokenScheme creates the session-token credential scheme. The
// header name comes from the project's shared session config; an empty name
// falls back to the default.
func NewSessionTokenScheme(store session.Store, headerName string) CredentialScheme {
	if headerName == "" {
		headerName = session.DefaultHeaderName
	}
	return &sessionTokenScheme{store: store, headerName: headerName}
}

func (s *sessionTokenScheme) Kind() SchemeKind {
	return SchemeSessionToken
}

func (s *sessionTokenScheme) Extract(r *http.Request) (Credential, *Failure) {
	value := r.Header.Get(s.headerName)
	if value == "" {
		return Credential{}, NewFailure(ReasonMissingCredential, "missing %s header", s.headerName)
	}
	if _, err := uuid.Parse(value); err != nil {
		return Credential{}, NewFailure(ReasonMalformedCredential, "session id is not a valid UUID")
	}
	return Credential{Scheme: SchemeSessionToken, Value: value}, nil
}

func (s *sessionTokenScheme) Validate(ctx context.Context, cred Credential, cfg *SourceConfig) (*Identity, *Failure) {
	record, err := s.store.Lookup(ctx, cred.Value)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, NewFailure(ReasonInvalidCredential, "session expired or unknown")
		}
		return nil, NewFailure(ReasonInternal, "session store lookup failed: %v", err)
	}

	if record.Project != cfg.project {
		return nil, NewFailure(ReasonInvalidCredential, "session belongs to another project")
	}

	// Renewal follows the project's session config, not the store's. The
	// write is best-effort: on failure the session stays valid at its old
	// expiry.
	if cfg.Session != nil && cfg.Session.Renew {
		renewed := *record
		renewed.ExpiresAt = time.Now().Add(cfg.Session.TTL)
		if err := s.store.Create(ctx, &renewed); err == nil {
			record = &renewed
		}
	}

	return &Identity{
		Kind:      PrincipalUser,
		Project:   record.Project,
		Source:    Source(record.Source),
		UserID:    record.UserID,
		UserType:  rbac.UserType(record.UserType),
		Roles:     rbac.RolesFromStrings(record.Roles),
		SessionID: record.ID,
	}, nil
}
