package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/gatehouse/pkg/auth"
	"github.com/platinummonkey/gatehouse/pkg/rbac"
	"github.com/platinummonkey/gatehouse/pkg/session"
)

// projectFile is the YAML shape of one project's auth configuration
type projectFile struct {
	Project string          `yaml:"project"`
	Session *session.Config `yaml:"session"`

	// UserTypes maps a user type to the roles it carries
	UserTypes map[string][]string `yaml:"user_types"`

	Sources []sourceEntry `yaml:"sources"`
}

type sourceEntry struct {
	Source string `yaml:"source"`
	Scheme string `yaml:"scheme"`

	// APIKey is the pre-shared key for api-key sources. APIKeyEnv names an
	// environment variable to read it from instead, keeping secrets out of
	// the file.
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Projects is the assembled auth configuration of every tenant: validated
// project configs plus the role and source registries the engine consumes.
type Projects struct {
	Configs []*auth.ProjectConfig
	Roles   *rbac.Registry
	Sources *auth.SourceRegistry
}

// SessionHeaderName returns the session header shared by the projects that
// use session-token sources. The scheme reads a single header per deployment,
// so projects that disagree on the name are a configuration error. Returns
// empty when no project uses sessions.
func (p *Projects) SessionHeaderName() (string, error) {
	name := ""
	for _, cfg := range p.Configs {
		sc := cfg.SessionConfig()
		if sc == nil {
			continue
		}
		if name == "" {
			name = sc.HeaderName
			continue
		}
		if sc.HeaderName != name {
			return "", auth.NewConfigurationError(
				"projects disagree on the session header: %q vs %q", name, sc.HeaderName)
		}
	}
	return name, nil
}

// LoadProjects reads every *.yaml file in dir as one project's auth
// configuration. Any inconsistency is a ConfigurationError; the caller must
// treat it as fatal.
func LoadProjects(dir string) (*Projects, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list project configs: %w", err)
	}
	if len(files) == 0 {
		return nil, auth.NewConfigurationError("no project configs found in %s", dir)
	}

	out := &Projects{
		Roles:   rbac.NewRegistry(),
		Sources: auth.NewSourceRegistry(),
	}

	for _, file := range files {
		pf, err := parseProjectFile(file)
		if err != nil {
			return nil, err
		}
		cfg, err := assembleProject(file, pf, out)
		if err != nil {
			return nil, err
		}
		out.Configs = append(out.Configs, cfg)
	}

	return out, nil
}

func parseProjectFile(file string) (*projectFile, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read project config %s: %w", file, err)
	}

	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse project config %s: %w", file, err)
	}
	return &pf, nil
}

// assembleProject validates one parsed project file and registers its roles
// and sources into the shared registries
func assembleProject(file string, pf *projectFile, out *Projects) (*auth.ProjectConfig, error) {
	if pf.Project == "" {
		return nil, auth.NewConfigurationError("%s does not name a project", file)
	}

	for userType, roles := range pf.UserTypes {
		if err := out.Roles.Register(pf.Project, rbac.UserType(userType), rbac.RolesFromStrings(roles)); err != nil {
			return nil, auth.NewConfigurationError("%s: %v", file, err)
		}
	}

	sources := make([]*auth.SourceConfig, 0, len(pf.Sources))
	for _, entry := range pf.Sources {
		apiKey := entry.APIKey
		if entry.APIKeyEnv != "" {
			apiKey = os.Getenv(entry.APIKeyEnv)
			if apiKey == "" {
				return nil, auth.NewConfigurationError(
					"%s: source %q reads its api key from unset env var %s",
					file, entry.Source, entry.APIKeyEnv)
			}
		}

		sources = append(sources, &auth.SourceConfig{
			Source: auth.Source(entry.Source),
			Scheme: auth.SchemeKind(entry.Scheme),
			APIKey: apiKey,
		})
		out.Sources.Register(auth.Source(entry.Source), auth.SchemeKind(entry.Scheme))
	}

	cfg, err := auth.NewProjectConfig(pf.Project, pf.Session, sources...)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
