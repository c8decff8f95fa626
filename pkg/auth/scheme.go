package auth

import (
	"context"
	"net/http"

	"github.com/platinummonkey/gatehouse/pkg/rbac"
)

// Identity is the raw identity a scheme resolves a credential to, before the
// engine builds a Principal from it
type Identity struct {
	Kind      PrincipalKind
	Project   string
	Source    Source
	UserID    string
	UserType  rbac.UserType
	Roles     rbac.RoleSet
	SessionID string
}

// CredentialScheme is a named authentication mechanism. Extract pulls the
// credential out of the request; Validate checks it against the matched
// source config and resolves the identity behind it.
//
// Both operations resolve every failure condition to a typed *Failure with a
// distinct reason code; they never panic into the request path.
type CredentialScheme interface {
	Kind() SchemeKind
	Extract(r *http.Request) (Credential, *Failure)
	Validate(ctx context.Context, cred Credential, cfg *SourceConfig) (*Identity, *Failure)
}
