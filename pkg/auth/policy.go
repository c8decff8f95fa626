package auth

import "github.com/platinummonkey/gatehouse/pkg/rbac"

// Policy is the declarative authentication requirement attached to a
// protected operation: which project it belongs to, which credential scheme
// it accepts, which sources may call it and, for user policies, which roles
// each user type needs.
//
// Policies are plain immutable data created once at route-registration time
// and only read by the engine afterwards.
type Policy struct {
	Kind    PrincipalKind
	Project string
	Scheme  SchemeKind
	Sources []Source

	// RequiredRoles applies to user policies only. A user type present with
	// an empty role set passes with any role; a user type absent from the
	// map is rejected. This asymmetry is the authorization default and must
	// not be collapsed.
	RequiredRoles map[rbac.UserType]rbac.RoleSet
}

// ServicePolicy declares a machine-to-machine policy for the given project
// and allowed sources
func ServicePolicy(project string, scheme SchemeKind, sources ...Source) Policy {
	return Policy{
		Kind:    PrincipalService,
		Project: project,
		Scheme:  scheme,
		Sources: sources,
	}
}

// UserPolicy declares an end-user policy with a role requirement map
func UserPolicy(project string, scheme SchemeKind, requiredRoles map[rbac.UserType]rbac.RoleSet, sources ...Source) Policy {
	return Policy{
		Kind:          PrincipalUser,
		Project:       project,
		Scheme:        scheme,
		Sources:       sources,
		RequiredRoles: requiredRoles,
	}
}

// AllowsSource reports whether the policy permits the claimed source
func (p *Policy) AllowsSource(source Source) bool {
	for _, s := range p.Sources {
		if s == source {
			return true
		}
	}
	return false
}
