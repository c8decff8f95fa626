// Package observability provides structured logging and graceful shutdown
// coordination for the gatehouse server.
package observability
