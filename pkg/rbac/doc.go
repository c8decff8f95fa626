// Package rbac defines the tenant-scoped user-type and role model and the
// pure authorization decision applied to user principals.
//
// A project registers its user types and the roles each type carries at
// startup. The authorization decision is a side-effect-free function of the
// principal's actual roles and the policy's required-role map, so every
// combination can be covered by unit tests.
package rbac
