package auth

import (
	"fmt"
	"net/http"
)

// Reason is a stable machine-readable rejection code
type Reason string

const (
	// ReasonMissingCredential means the request carried no credential for
	// the policy's scheme
	ReasonMissingCredential Reason = "missing_credential"
	// ReasonMalformedCredential means a credential was present but not
	// syntactically valid
	ReasonMalformedCredential Reason = "malformed_credential"
	// ReasonSourceNotAllowed means no configured source matches both the
	// request's claimed origin and the policy
	ReasonSourceNotAllowed Reason = "source_not_allowed"
	// ReasonInvalidCredential means the credential failed validation
	// (wrong key, expired or unknown session)
	ReasonInvalidCredential Reason = "invalid_credential"
	// ReasonUserTypeNotAllowed means the authenticated user's type does not
	// appear in the policy's role map
	ReasonUserTypeNotAllowed Reason = "user_type_not_allowed"
	// ReasonInsufficientRole means the user's roles do not intersect the
	// policy's required set
	ReasonInsufficientRole Reason = "insufficient_role"
	// ReasonInternal marks an unexpected fault inside the engine itself
	ReasonInternal Reason = "internal_error"
)

// HTTPStatus maps the reason to the response status code
func (r Reason) HTTPStatus() int {
	switch r {
	case ReasonUserTypeNotAllowed, ReasonInsufficientRole:
		return http.StatusForbidden
	case ReasonInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// Elevated reports whether the rejection is authenticated-but-forbidden or
// an internal fault, i.e. worth elevated attention in audit review
func (r Reason) Elevated() bool {
	switch r {
	case ReasonUserTypeNotAllowed, ReasonInsufficientRole, ReasonInternal:
		return true
	default:
		return false
	}
}

// Failure is a typed per-request authentication failure. It is a value, not
// a fault: failures never propagate as panics and are always translated to a
// structured error response.
type Failure struct {
	Reason  Reason
	Message string
}

// NewFailure creates a Failure with a formatted message
func NewFailure(reason Reason, format string, args ...interface{}) *Failure {
	return &Failure{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Reason, f.Message)
}

// ConfigurationError is a fatal startup-time error: unknown scheme names,
// inconsistent project configs and the like. The process must refuse to
// start when one is returned.
type ConfigurationError struct {
	msg string
}

// NewConfigurationError creates a ConfigurationError with a formatted message
func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return "auth configuration error: " + e.msg
}
