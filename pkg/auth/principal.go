package auth

import (
	"context"
	"fmt"

	"github.com/platinummonkey/gatehouse/pkg/contextkeys"
	"github.com/platinummonkey/gatehouse/pkg/rbac"
)

// PrincipalKind distinguishes machine identities from end users
type PrincipalKind string

const (
	// PrincipalService is a machine identity; it carries no role set
	PrincipalService PrincipalKind = "service"
	// PrincipalUser is an end-user identity with a tenant-scoped user type
	// and resolved roles
	PrincipalUser PrincipalKind = "user"
)

// Principal is the resolved identity attached to an authenticated request.
// It is read-only once attached to the request context; downstream handlers
// must not mutate it.
//
// Invariant: for user principals, Roles is always a subset of the roles
// registered for (Project, UserType). The engine intersects the session's
// roles with the registry when building the principal.
type Principal struct {
	Kind      PrincipalKind
	Project   string
	Source    Source
	UserID    string
	UserType  rbac.UserType
	Roles     rbac.RoleSet
	SessionID string
}

// IsService reports whether this is a machine identity
func (p *Principal) IsService() bool {
	return p.Kind == PrincipalService
}

// IsUser reports whether this is an end-user identity
func (p *Principal) IsUser() bool {
	return p.Kind == PrincipalUser
}

func (p *Principal) String() string {
	if p.IsService() {
		return fmt.Sprintf("service:%s@%s", p.Source, p.Project)
	}
	return fmt.Sprintf("user:%s(%s)@%s", p.UserID, p.UserType, p.Project)
}

// PrincipalFromContext retrieves the authenticated principal, if any
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextkeys.PrincipalKey).(*Principal)
	return p, ok
}

// ContextWithPrincipal attaches the principal to the context
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return contextkeys.WithPrincipal(ctx, p)
}
