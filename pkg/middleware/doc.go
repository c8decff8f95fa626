// Package middleware binds declarative auth policies to HTTP routes and
// provides the request-id and panic-recovery middlewares.
package middleware
