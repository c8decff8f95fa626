package auth

// SchemeKind names an authentication mechanism. The set of kinds is closed
// and small; new schemes are added by registration at startup, not
// discovered at request time.
type SchemeKind string

const (
	// SchemeAPIKey authenticates machine callers with a long-lived
	// pre-shared key
	SchemeAPIKey SchemeKind = "api-key"
	// SchemeSessionToken authenticates end users with an opaque session
	// identifier resolved through the session store
	SchemeSessionToken SchemeKind = "session-token"
)

const (
	// APIKeyHeaderName carries the api-key credential
	APIKeyHeaderName = "X-API-Key"
	// SourceHeaderName carries the request's claimed principal source
	SourceHeaderName = "X-Principal-Source"
)

// Credential is the raw proof-of-identity material extracted from a request.
// Immutable once extracted.
type Credential struct {
	Scheme SchemeKind
	Value  string
}
