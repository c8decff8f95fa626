package middleware

import (
	"net/http"

	"github.com/platinummonkey/gatehouse/pkg/auth"
	"github.com/platinummonkey/gatehouse/pkg/httputil"
	"github.com/platinummonkey/gatehouse/pkg/observability"
)

// Authenticator wires the authentication engine into the HTTP layer. One
// policy is attached per protected operation at route-registration time; the
// engine never discovers policies dynamically.
type Authenticator struct {
	engine *auth.Engine
	logger *observability.Logger
}

// NewAuthenticator creates the auth middleware factory
func NewAuthenticator(engine *auth.Engine, logger *observability.Logger) *Authenticator {
	return &Authenticator{engine: engine, logger: logger}
}

// Require returns middleware enforcing the policy on every request. The
// policy is validated against the engine's configuration immediately; an
// invalid policy is a configuration error and panics so the process fails at
// startup rather than serving a route with broken protection.
func (a *Authenticator) Require(policy auth.Policy) func(http.Handler) http.Handler {
	if err := a.engine.ValidatePolicy(policy); err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, failure := a.engine.Authenticate(r, policy)
			if failure != nil {
				httputil.WriteAuthFailure(w, failure)
				return
			}

			// If the client went away while we authenticated, discard the
			// decision instead of attaching a principal to a dead request.
			select {
			case <-r.Context().Done():
				return
			default:
			}

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated principal from the request
func GetPrincipal(r *http.Request) *auth.Principal {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return nil
	}
	return p
}
