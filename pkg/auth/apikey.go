package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
)

// maxAPIKeyLength bounds the accepted credential size; anything longer is
// malformed rather than a candidate for comparison
const maxAPIKeyLength = 256

// apiKeyScheme authenticates machine callers against a static pre-shared
// key configured per source. The key is long-lived; there is no replay
// window.
type apiKeyScheme struct{}

// NewAPIKeyScheme creates the api-key credential scheme
func NewAPIKeyScheme() CredentialScheme {
	return &apiKeyScheme{}
}

func (s *apiKeyScheme) Kind() SchemeKind {
	return SchemeAPIKey
}

func (s *apiKeyScheme) Extract(r *http.Request) (Credential, *Failure) {
	value := r.Header.Get(APIKeyHeaderName)
	if value == "" {
		return Credential{}, NewFailure(ReasonMissingCredential, "missing %s header", APIKeyHeaderName)
	}
	if len(value) > maxAPIKeyLength {
		return Credential{}, NewFailure(ReasonMalformedCredential, "api key exceeds %d bytes", maxAPIKeyLength)
	}
	return Credential{Scheme: SchemeAPIKey, Value: value}, nil
}

func (s *apiKeyScheme) Validate(_ context.Context, cred Credential, cfg *SourceConfig) (*Identity, *Failure) {
	// Constant-time comparison so the check leaks no prefix information.
	if subtle.ConstantTimeCompare([]byte(cred.Value), []byte(cfg.APIKey)) != 1 {
		return nil, NewFailure(ReasonInvalidCredential, "api key mismatch for source %q", cfg.Source)
	}
	return &Identity{
		Kind:    PrincipalService,
		Project: cfg.project,
		Source:  cfg.Source,
	}, nil
}
