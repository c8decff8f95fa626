package auth

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatehouse/pkg/session"
)

func TestAPIKeySchemeExtract(t *testing.T) {
	scheme := NewAPIKeyScheme()

	r := httptest.NewRequest("GET", "/", nil)
	_, failure := scheme.Extract(r)
	require.NotNil(t, failure)
	assert.Equal(t, ReasonMissingCredential, failure.Reason)

	r.Header.Set(APIKeyHeaderName, strings.Repeat("x", maxAPIKeyLength+1))
	_, failure = scheme.Extract(r)
	require.NotNil(t, failure)
	assert.Equal(t, ReasonMalformedCredential, failure.Reason)

	r.Header.Set(APIKeyHeaderName, "secret")
	cred, failure := scheme.Extract(r)
	require.Nil(t, failure)
	assert.Equal(t, SchemeAPIKey, cred.Scheme)
	assert.Equal(t, "secret", cred.Value)
}

func TestAPIKeySchemeValidate(t *testing.T) {
	scheme := NewAPIKeyScheme()
	cfg := &SourceConfig{Source: "backend-service", Scheme: SchemeAPIKey, APIKey: "secret", project: "club"}

	identity, failure := scheme.Validate(context.Background(),
		Credential{Scheme: SchemeAPIKey, Value: "secret"}, cfg)
	require.Nil(t, failure)
	assert.Equal(t, PrincipalService, identity.Kind)
	assert.Equal(t, "club", identity.Project)
	assert.Equal(t, Source("backend-service"), identity.Source)

	_, failure = scheme.Validate(context.Background(),
		Credential{Scheme: SchemeAPIKey, Value: "secre"}, cfg)
	require.NotNil(t, failure)
	assert.Equal(t, ReasonInvalidCredential, failure.Reason)

	_, failure = scheme.Validate(context.Background(),
		Credential{Scheme: SchemeAPIKey, Value: "secret-but-longer"}, cfg)
	require.NotNil(t, failure)
	assert.Equal(t, ReasonInvalidCredential, failure.Reason)
}

func newSessionSchemeFixture(t *testing.T) (CredentialScheme, *session.MemoryStore, string) {
	t.Helper()

	// The store carries a plain default config; TTL and renew come from the
	// project's session config on the source config.
	store, err := session.NewMemoryStore(16, &session.Config{}, "")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	id := uuid.New().String()
	require.NoError(t, store.Create(context.Background(), &session.Record{
		ID:        id,
		Project:   "club",
		Source:    "app-android",
		UserID:    "user-1",
		UserType:  "user",
		Roles:     []string{"member"},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}))

	return NewSessionTokenScheme(store, ""), store, id
}

func TestSessionTokenSchemeRenewsPerProjectConfig(t *testing.T) {
	sessionCfg := &session.Config{TTL: time.Hour, Renew: true}
	scheme, store, id := newSessionSchemeFixture(t)
	cfg := &SourceConfig{
		Source: "app-android", Scheme: SchemeSessionToken,
		Session: sessionCfg, project: "club",
	}

	identity, failure := scheme.Validate(context.Background(),
		Credential{Scheme: SchemeSessionToken, Value: id}, cfg)
	require.Nil(t, failure)
	assert.Equal(t, "user-1", identity.UserID)

	// The stored record now carries the project's TTL, not the original
	// one-minute expiry.
	got, err := store.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.After(time.Now().Add(30*time.Minute)),
		"successful validation must extend expiry by the project TTL")
}

func TestSessionTokenSchemeNoRenewalWhenDisabled(t *testing.T) {
	sessionCfg := &session.Config{TTL: time.Hour, Renew: false}
	scheme, store, id := newSessionSchemeFixture(t)
	cfg := &SourceConfig{
		Source: "app-android", Scheme: SchemeSessionToken,
		Session: sessionCfg, project: "club",
	}

	before, err := store.Lookup(context.Background(), id)
	require.NoError(t, err)

	_, failure := scheme.Validate(context.Background(),
		Credential{Scheme: SchemeSessionToken, Value: id}, cfg)
	require.Nil(t, failure)

	after, err := store.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, before.ExpiresAt, after.ExpiresAt)
}

func TestReasonHTTPStatus(t *testing.T) {
	assert.Equal(t, 401, ReasonMissingCredential.HTTPStatus())
	assert.Equal(t, 401, ReasonMalformedCredential.HTTPStatus())
	assert.Equal(t, 401, ReasonSourceNotAllowed.HTTPStatus())
	assert.Equal(t, 401, ReasonInvalidCredential.HTTPStatus())
	assert.Equal(t, 403, ReasonUserTypeNotAllowed.HTTPStatus())
	assert.Equal(t, 403, ReasonInsufficientRole.HTTPStatus())
	assert.Equal(t, 500, ReasonInternal.HTTPStatus())
}

func TestReasonElevated(t *testing.T) {
	assert.False(t, ReasonInvalidCredential.Elevated())
	assert.False(t, ReasonSourceNotAllowed.Elevated())
	assert.True(t, ReasonUserTypeNotAllowed.Elevated())
	assert.True(t, ReasonInsufficientRole.Elevated())
	assert.True(t, ReasonInternal.Elevated())
}
