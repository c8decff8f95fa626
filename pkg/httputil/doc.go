// Package httputil provides HTTP handler utilities: the response envelope
// shared by every endpoint and the mapping from auth failures to structured
// error responses.
package httputil
