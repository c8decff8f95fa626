// Package auth implements the principal authentication and authorization
// framework: credential schemes, principal source resolution, declarative
// per-route policies and the engine that drives a request through them.
//
// All configuration objects (project configs, source registry, policies) are
// built at startup and read-only afterwards; the request path touches no
// shared mutable state. Rejections resolve to typed Failure values with
// stable reason codes, never panics, and every rejection is mirrored into an
// audit entry dispatched asynchronously so the response path never waits on
// a sink.
package auth
