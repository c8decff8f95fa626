// Package club is the sample tenant: a small membership service showing how
// a project declares its sources, roles and per-route policies.
package club

import (
	"github.com/platinummonkey/gatehouse/pkg/auth"
	"github.com/platinummonkey/gatehouse/pkg/rbac"
)

// ProjectID is the club tenant id
const ProjectID = "club"

// Principal sources of the club project
const (
	SourceAppAndroid     auth.Source = "app-android"
	SourceAppIOS         auth.Source = "app-ios"
	SourceBackendService auth.Source = "backend-service"
)

// User types and roles of the club project
const (
	UserTypeUser rbac.UserType = "user"

	RoleAdmin  rbac.Role = "admin"
	RoleMember rbac.Role = "member"
)

// userSources are the sources end users sign in from
var userSources = []auth.Source{SourceAppAndroid, SourceAppIOS}

// Public is the machine-to-machine policy: the backend service calling with
// its pre-shared api key
func Public() auth.Policy {
	return auth.ServicePolicy(ProjectID, auth.SchemeAPIKey, SourceBackendService)
}

// User allows any signed-in club user, whatever their roles
func User() auth.Policy {
	return auth.UserPolicy(ProjectID, auth.SchemeSessionToken,
		map[rbac.UserType]rbac.RoleSet{UserTypeUser: {}},
		userSources...)
}

// Admin requires the admin role
func Admin() auth.Policy {
	return auth.UserPolicy(ProjectID, auth.SchemeSessionToken,
		map[rbac.UserType]rbac.RoleSet{UserTypeUser: rbac.NewRoleSet(RoleAdmin)},
		userSources...)
}

// Member requires the member role
func Member() auth.Policy {
	return auth.UserPolicy(ProjectID, auth.SchemeSessionToken,
		map[rbac.UserType]rbac.RoleSet{UserTypeUser: rbac.NewRoleSet(RoleMember)},
		userSources...)
}
