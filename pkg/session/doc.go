// Package session implements the session store collaborator used by the
// session-token credential scheme.
//
// The authentication engine only reads sessions; creation and invalidation
// belong to login flows owned elsewhere. Stores must therefore be safe for
// concurrent reads with no in-process write coordination on the request path.
package session
