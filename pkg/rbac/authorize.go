package rbac

// Decision is the outcome of evaluating a user principal's roles against a
// policy's required-role map.
type Decision int

const (
	// Allowed means the principal passed the role check
	Allowed Decision = iota
	// UserTypeNotAllowed means the principal's user type does not appear in
	// the policy's required-role map at all
	UserTypeNotAllowed
	// NoMatchingRole means the user type is permitted but none of the
	// principal's roles satisfy the non-empty required set
	NoMatchingRole
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case UserTypeNotAllowed:
		return "user_type_not_allowed"
	case NoMatchingRole:
		return "no_matching_role"
	default:
		return "unknown"
	}
}

// Decide evaluates the role requirement for a user principal.
//
// The asymmetry here is deliberate and load-bearing: a user type that is
// present in the map with an EMPTY required set passes regardless of roles
// (any authenticated user of that type), while a user type that is ABSENT
// from the map is rejected outright. Callers must not "normalize" the two
// cases into one.
func Decide(userType UserType, actual RoleSet, required map[UserType]RoleSet) Decision {
	want, ok := required[userType]
	if !ok {
		return UserTypeNotAllowed
	}
	if len(want) == 0 {
		return Allowed
	}
	if actual.Intersects(want) {
		return Allowed
	}
	return NoMatchingRole
}
