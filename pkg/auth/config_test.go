package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatehouse/pkg/session"
)

func TestNewProjectConfigInjectsSharedSessionConfig(t *testing.T) {
	sessionCfg := &session.Config{TTL: 15 * time.Minute}
	android := &SourceConfig{Source: "app-android", Scheme: SchemeSessionToken}
	ios := &SourceConfig{Source: "app-ios", Scheme: SchemeSessionToken}

	cfg, err := NewProjectConfig("club", sessionCfg, android, ios)
	require.NoError(t, err)

	// One shared instance across all session sources, injected exactly once
	// at construction.
	assert.Same(t, sessionCfg, android.Session)
	assert.Same(t, sessionCfg, ios.Session)
	assert.Same(t, sessionCfg, cfg.SessionConfig())
	assert.Equal(t, "club", cfg.Project())
}

func TestNewProjectConfigStampsProject(t *testing.T) {
	svc := &SourceConfig{Source: "backend-service", Scheme: SchemeAPIKey, APIKey: "k"}
	_, err := NewProjectConfig("club", nil, svc)
	require.NoError(t, err)
	assert.Equal(t, "club", svc.project)
}

func TestNewProjectConfigValidation(t *testing.T) {
	sessionCfg := &session.Config{TTL: time.Minute}

	tests := []struct {
		name    string
		project string
		session *session.Config
		sources []*SourceConfig
	}{
		{
			name:    "missing project id",
			project: "",
			sources: []*SourceConfig{{Source: "s", Scheme: SchemeAPIKey, APIKey: "k"}},
		},
		{
			name:    "no sources",
			project: "club",
		},
		{
			name:    "source without name",
			project: "club",
			sources: []*SourceConfig{{Scheme: SchemeAPIKey, APIKey: "k"}},
		},
		{
			name:    "duplicate source",
			project: "club",
			sources: []*SourceConfig{
				{Source: "s", Scheme: SchemeAPIKey, APIKey: "k"},
				{Source: "s", Scheme: SchemeAPIKey, APIKey: "k2"},
			},
		},
		{
			name:    "api-key source without key",
			project: "club",
			sources: []*SourceConfig{{Source: "s", Scheme: SchemeAPIKey}},
		},
		{
			name:    "session source without session config",
			project: "club",
			sources: []*SourceConfig{{Source: "s", Scheme: SchemeSessionToken}},
		},
		{
			name:    "unknown scheme",
			project: "club",
			session: sessionCfg,
			sources: []*SourceConfig{{Source: "s", Scheme: "jwt"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProjectConfig(tt.project, tt.session, tt.sources...)
			require.Error(t, err)
			var confErr *ConfigurationError
			assert.ErrorAs(t, err, &confErr)
		})
	}
}

func TestFindSource(t *testing.T) {
	svc := &SourceConfig{Source: "backend-service", Scheme: SchemeAPIKey, APIKey: "k"}
	cfg, err := NewProjectConfig("club", nil, svc)
	require.NoError(t, err)

	assert.Same(t, svc, cfg.FindSource("backend-service"))
	assert.Nil(t, cfg.FindSource("app-android"))
}
