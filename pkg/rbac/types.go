package rbac

import (
	"fmt"
	"sort"
	"strings"
)

// UserType classifies an end-user principal within a project
type UserType string

// Role is a named permission grant scoped to a UserType within a project
type Role string

// RoleSet is an immutable-by-convention set of roles
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Contains reports whether the set contains the role
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Intersects reports whether the two sets share at least one role
func (s RoleSet) Intersects(other RoleSet) bool {
	for r := range s {
		if other.Contains(r) {
			return true
		}
	}
	return false
}

// Intersect returns the roles present in both sets
func (s RoleSet) Intersect(other RoleSet) RoleSet {
	out := RoleSet{}
	for r := range s {
		if other.Contains(r) {
			out[r] = struct{}{}
		}
	}
	return out
}

// Subset reports whether every role in s is present in other
func (s RoleSet) Subset(other RoleSet) bool {
	for r := range s {
		if !other.Contains(r) {
			return false
		}
	}
	return true
}

// Slice returns the roles in sorted order, for stable logging and wire output
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the roles as sorted strings
func (s RoleSet) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func (s RoleSet) String() string {
	return strings.Join(s.Strings(), ",")
}

// RolesFromStrings converts raw role names, e.g. from a session record or a
// YAML config, into a RoleSet
func RolesFromStrings(names []string) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		s[Role(n)] = struct{}{}
	}
	return s
}

// Registry holds the user types registered per project and the roles each
// type carries. It is populated at startup and read-only afterwards, so no
// locking is needed on the request path.
type Registry struct {
	projects map[string]map[UserType]RoleSet
}

// NewRegistry creates an empty role registry
func NewRegistry() *Registry {
	return &Registry{projects: make(map[string]map[UserType]RoleSet)}
}

// Register records the roles carried by a user type within a project.
// Registering the same (project, user type) pair twice is a configuration
// mistake and returns an error.
func (r *Registry) Register(project string, userType UserType, roles RoleSet) error {
	types, ok := r.projects[project]
	if !ok {
		types = make(map[UserType]RoleSet)
		r.projects[project] = types
	}
	if _, exists := types[userType]; exists {
		return fmt.Errorf("user type %q already registered for project %q", userType, project)
	}
	types[userType] = roles
	return nil
}

// RegisteredRoles returns the roles registered for the (project, user type)
// pair. The second return value is false when the pair is unknown.
func (r *Registry) RegisteredRoles(project string, userType UserType) (RoleSet, bool) {
	types, ok := r.projects[project]
	if !ok {
		return nil, false
	}
	roles, ok := types[userType]
	return roles, ok
}

// UserTypes returns the user types registered for a project, sorted
func (r *Registry) UserTypes(project string) []UserType {
	types := r.projects[project]
	out := make([]UserType, 0, len(types))
	for t := range types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
