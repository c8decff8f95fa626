// Package logging provides the audit/event fan-out contract: immutable log
// entries produced by the authentication engine and business logic, and the
// Writer sinks that consume them.
//
// Writers are best-effort from the caller's perspective. Request-handling
// code hands an entry to an AsyncWriter and returns immediately; a dedicated
// drain goroutine owns delivery. Sink failures are swallowed and self-logged,
// never surfaced back into the request path.
package logging
