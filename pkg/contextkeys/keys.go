// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application must be defined here. This
// prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// PrincipalKey contains *auth.Principal
	// Set by: middleware.Authenticator after a successful authentication
	// Required by: protected handlers; read-only after attachment
	PrincipalKey Key = "principal"

	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: logger, audit entries
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: server bootstrap / middleware
	// Used by: handlers that need structured logging with request context
	LoggerKey Key = "logger"
)

// WithPrincipal adds the authenticated principal to the context
func WithPrincipal(ctx context.Context, principal interface{}) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
