package auth

import (
	"github.com/platinummonkey/gatehouse/pkg/session"
)

// SourceConfig binds one principal source to the credential scheme and
// parameters it authenticates with inside a project. PrincipalSourceAuthConfig
// in the design documents.
type SourceConfig struct {
	Source Source
	Scheme SchemeKind

	// APIKey is the pre-shared key for api-key sources
	APIKey string

	// Session is the project's shared session config, injected by
	// NewProjectConfig for session-token sources. Never set directly.
	Session *session.Config

	// project is stamped by NewProjectConfig so schemes can verify
	// credentials against the owning tenant
	project string
}

// ProjectConfig aggregates the source configs of a single project/tenant.
// The one shared session.Config is injected into every session-token source
// config exactly once at construction, making it the single source of truth
// for session behavior across sources. The aggregate is immutable afterwards.
type ProjectConfig struct {
	project string
	session *session.Config
	sources []*SourceConfig
}

// NewProjectConfig composes and validates a project's auth configuration.
// Any inconsistency is a ConfigurationError: the process must refuse to
// start rather than serve with a partial config.
func NewProjectConfig(project string, sessionConfig *session.Config, sources ...*SourceConfig) (*ProjectConfig, error) {
	if project == "" {
		return nil, NewConfigurationError("project id is required")
	}
	if len(sources) == 0 {
		return nil, NewConfigurationError("project %q has no source configs", project)
	}
	if sessionConfig != nil {
		sessionConfig.Normalize()
	}

	seen := make(map[Source]struct{}, len(sources))
	for _, cfg := range sources {
		if cfg.Source == "" {
			return nil, NewConfigurationError("project %q has a source config without a source", project)
		}
		if _, dup := seen[cfg.Source]; dup {
			return nil, NewConfigurationError("project %q declares source %q twice", project, cfg.Source)
		}
		seen[cfg.Source] = struct{}{}

		switch cfg.Scheme {
		case SchemeAPIKey:
			if cfg.APIKey == "" {
				return nil, NewConfigurationError(
					"project %q source %q uses api-key scheme without a key", project, cfg.Source)
			}
		case SchemeSessionToken:
			if sessionConfig == nil {
				return nil, NewConfigurationError(
					"project %q source %q uses session-token scheme but the project has no session config",
					project, cfg.Source)
			}
			cfg.Session = sessionConfig
		default:
			return nil, NewConfigurationError(
				"project %q source %q names unknown scheme %q", project, cfg.Source, cfg.Scheme)
		}

		cfg.project = project
	}

	return &ProjectConfig{
		project: project,
		session: sessionConfig,
		sources: sources,
	}, nil
}

// Project returns the project id
func (c *ProjectConfig) Project() string {
	return c.project
}

// SessionConfig returns the shared session config, nil when the project has
// no session-token sources
func (c *ProjectConfig) SessionConfig() *session.Config {
	return c.session
}

// SourceConfigs returns the project's source configs
func (c *ProjectConfig) SourceConfigs() []*SourceConfig {
	return c.sources
}

// FindSource returns the config for the given source, nil when absent
func (c *ProjectConfig) FindSource(source Source) *SourceConfig {
	for _, cfg := range c.sources {
		if cfg.Source == source {
			return cfg
		}
	}
	return nil
}
