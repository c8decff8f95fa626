// Package async provides safe goroutine helpers and a bounded worker pool.
//
// Use SafeGo instead of bare `go func()` for fire-and-forget work so panics
// are recovered and errors logged instead of crashing the request path. The
// WorkerPool backs background dispatch such as notification delivery.
package async
