package auth

import (
	"net/http"

	"github.com/platinummonkey/gatehouse/pkg/logging"
	"github.com/platinummonkey/gatehouse/pkg/observability"
	"github.com/platinummonkey/gatehouse/pkg/rbac"
)

// Engine orchestrates the per-request authentication state machine:
// scheme lookup → credential extraction → source match → validation →
// principal construction → role check. Terminal states are Authenticated
// (a *Principal) and Rejected (a *Failure).
//
// The engine is built once at startup from read-only configuration and is
// safe for concurrent use. Audit entries for rejections are constructed
// synchronously but handed to the writer without waiting for delivery.
type Engine struct {
	schemes  map[SchemeKind]CredentialScheme
	projects map[string]*ProjectConfig
	sources  *SourceRegistry
	roles    *rbac.Registry
	writer   logging.Writer
	logger   *observability.Logger
	metrics  *Metrics
}

// EngineOption customizes the engine
type EngineOption func(*Engine)

// WithAuditWriter sets the sink rejections are mirrored into. The writer
// must not block; wrap slow sinks in a logging.AsyncWriter.
func WithAuditWriter(w logging.Writer) EngineOption {
	return func(e *Engine) { e.writer = w }
}

// WithMetrics sets the decision metrics
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an authentication engine over the given schemes, source
// registry, role registry and project configs
func NewEngine(
	schemes []CredentialScheme,
	sources *SourceRegistry,
	roles *rbac.Registry,
	projects []*ProjectConfig,
	logger *observability.Logger,
	opts ...EngineOption,
) (*Engine, error) {
	e := &Engine{
		schemes:  make(map[SchemeKind]CredentialScheme, len(schemes)),
		projects: make(map[string]*ProjectConfig, len(projects)),
		sources:  sources,
		roles:    roles,
		logger:   logger,
	}

	for _, s := range schemes {
		if _, dup := e.schemes[s.Kind()]; dup {
			return nil, NewConfigurationError("scheme %q registered twice", s.Kind())
		}
		e.schemes[s.Kind()] = s
	}

	for _, p := range projects {
		if _, dup := e.projects[p.Project()]; dup {
			return nil, NewConfigurationError("project %q registered twice", p.Project())
		}
		for _, cfg := range p.SourceConfigs() {
			if _, ok := e.schemes[cfg.Scheme]; !ok {
				return nil, NewConfigurationError(
					"project %q source %q names unregistered scheme %q",
					p.Project(), cfg.Source, cfg.Scheme)
			}
			if !sources.Allows(cfg.Source, cfg.Scheme) {
				return nil, NewConfigurationError(
					"source %q is not registered for scheme %q", cfg.Source, cfg.Scheme)
			}
		}
		e.projects[p.Project()] = p
	}

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ValidatePolicy checks a policy against the engine's configuration. Called
// at route-registration time; a non-nil error is fatal at startup, not a
// per-request condition.
func (e *Engine) ValidatePolicy(policy Policy) error {
	if _, ok := e.schemes[policy.Scheme]; !ok {
		return NewConfigurationError("policy names unregistered scheme %q", policy.Scheme)
	}
	project, ok := e.projects[policy.Project]
	if !ok {
		return NewConfigurationError("policy names unknown project %q", policy.Project)
	}
	if len(policy.Sources) == 0 {
		return NewConfigurationError("policy for project %q allows no sources", policy.Project)
	}

	matched := false
	for _, src := range policy.Sources {
		cfg := project.FindSource(src)
		if cfg != nil && cfg.Scheme == policy.Scheme {
			matched = true
			break
		}
	}
	if !matched {
		return NewConfigurationError(
			"no source config of project %q satisfies scheme %q for policy sources %v",
			policy.Project, policy.Scheme, policy.Sources)
	}

	switch policy.Kind {
	case PrincipalService:
		if policy.RequiredRoles != nil {
			return NewConfigurationError("service policy for project %q carries a role map", policy.Project)
		}
	case PrincipalUser:
		if policy.RequiredRoles == nil {
			return NewConfigurationError("user policy for project %q has no role map", policy.Project)
		}
	default:
		return NewConfigurationError("policy has unknown principal kind %q", policy.Kind)
	}
	return nil
}

// Authenticate drives one request through the state machine. On success the
// returned principal is ready to attach to the request context; on rejection
// the failure carries a stable reason code, and an audit entry has been
// dispatched asynchronously.
func (e *Engine) Authenticate(r *http.Request, policy Policy) (*Principal, *Failure) {
	principal, failure := e.authenticate(r, policy)
	e.metrics.observe(policy.Project, policy.Scheme, failure)
	if failure != nil {
		e.audit(r, policy, principal, failure)
	}
	return principal, failure
}

// authenticate returns the partially resolved principal alongside the
// failure so the audit entry can name the actor on authenticated-but-
// forbidden rejections.
func (e *Engine) authenticate(r *http.Request, policy Policy) (*Principal, *Failure) {
	// Step 1: scheme lookup. Unknown schemes are caught by ValidatePolicy at
	// startup; hitting this at request time is an internal fault.
	scheme, ok := e.schemes[policy.Scheme]
	if !ok {
		return nil, NewFailure(ReasonInternal, "scheme %q not registered", policy.Scheme)
	}
	project, ok := e.projects[policy.Project]
	if !ok {
		return nil, NewFailure(ReasonInternal, "project %q not registered", policy.Project)
	}

	// Step 2: extract the credential.
	cred, failure := scheme.Extract(r)
	if failure != nil {
		return nil, failure
	}

	// Step 3: source match. The claimed origin must resolve to exactly one
	// source config permitted by both the project and the policy. No match
	// means no credential validation is ever attempted.
	claimed := Source(r.Header.Get(SourceHeaderName))
	cfg, failure := e.matchSource(project, policy, claimed)
	if failure != nil {
		return nil, failure
	}

	// Step 4: validate the credential against the matched config.
	identity, failure := scheme.Validate(r.Context(), cred, cfg)
	if failure != nil {
		return nil, failure
	}

	// A session minted for one source cannot be replayed from another.
	if identity.Source != cfg.Source {
		return nil, NewFailure(ReasonSourceNotAllowed,
			"credential was issued for source %q, request claims %q", identity.Source, cfg.Source)
	}

	// Step 5: build the principal.
	principal := e.buildPrincipal(identity)

	// Step 6: role check, user principals only.
	if policy.Kind == PrincipalUser {
		if failure := authorize(principal, policy); failure != nil {
			return principal, failure
		}
	}

	return principal, nil
}

func (e *Engine) matchSource(project *ProjectConfig, policy Policy, claimed Source) (*SourceConfig, *Failure) {
	if claimed == "" {
		return nil, NewFailure(ReasonSourceNotAllowed, "missing %s header", SourceHeaderName)
	}
	if !e.sources.Known(claimed) {
		return nil, NewFailure(ReasonSourceNotAllowed, "%q is not a registered source", claimed)
	}
	if !policy.AllowsSource(claimed) {
		return nil, NewFailure(ReasonSourceNotAllowed, "policy does not allow source %q", claimed)
	}
	cfg := project.FindSource(claimed)
	if cfg == nil {
		return nil, NewFailure(ReasonSourceNotAllowed,
			"source %q is not configured for project %q", claimed, project.Project())
	}
	if cfg.Scheme != policy.Scheme {
		return nil, NewFailure(ReasonSourceNotAllowed,
			"source %q authenticates with scheme %q, policy requires %q", claimed, cfg.Scheme, policy.Scheme)
	}
	if !e.sources.Allows(claimed, policy.Scheme) {
		return nil, NewFailure(ReasonSourceNotAllowed,
			"source %q may not use scheme %q", claimed, policy.Scheme)
	}
	return cfg, nil
}

// buildPrincipal constructs the principal from a validated identity. User
// roles are intersected with the registered roles for the (project, user
// type) pair, which maintains the subset invariant even if a stale session
// carries roles that were since deregistered.
func (e *Engine) buildPrincipal(identity *Identity) *Principal {
	p := &Principal{
		Kind:      identity.Kind,
		Project:   identity.Project,
		Source:    identity.Source,
		UserID:    identity.UserID,
		UserType:  identity.UserType,
		SessionID: identity.SessionID,
	}
	if identity.Kind == PrincipalUser {
		registered, ok := e.roles.RegisteredRoles(identity.Project, identity.UserType)
		if !ok {
			p.Roles = rbac.RoleSet{}
		} else {
			p.Roles = identity.Roles.Intersect(registered)
		}
	}
	return p
}

// authorize applies the pure role decision and translates it to a Failure
func authorize(p *Principal, policy Policy) *Failure {
	switch rbac.Decide(p.UserType, p.Roles, policy.RequiredRoles) {
	case rbac.Allowed:
		return nil
	case rbac.UserTypeNotAllowed:
		return NewFailure(ReasonUserTypeNotAllowed,
			"user type %q is not allowed by this policy", p.UserType)
	default:
		return NewFailure(ReasonInsufficientRole,
			"roles [%s] do not satisfy the policy for user type %q", p.Roles, p.UserType)
	}
}

// audit mirrors a rejection into the audit sink. The entry is built
// synchronously; delivery is the writer's responsibility and must not block.
func (e *Engine) audit(r *http.Request, policy Policy, principal *Principal, failure *Failure) {
	if e.writer == nil {
		return
	}

	source := r.Header.Get(SourceHeaderName)
	userID := ""
	if principal != nil {
		userID = principal.UserID
	}

	entry := logging.NewAuthRejected(policy.Project, source, userID,
		string(failure.Reason), failure.Message, r)

	if failure.Reason.Elevated() {
		e.logger.WithFields(map[string]interface{}{
			"project": policy.Project,
			"source":  source,
			"user_id": userID,
			"reason":  string(failure.Reason),
		}).Warn("rejected authenticated principal")
	}

	if err := e.writer.Write(r.Context(), entry); err != nil {
		// Sink trouble never reaches the response path.
		e.logger.WithError(err).WithField("project", policy.Project).
			Warn("failed to enqueue auth audit entry")
	}
}
