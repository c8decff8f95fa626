package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/platinummonkey/gatehouse/pkg/contextkeys"
)

// RequestIDHeader carries the request id back to the client
const RequestIDHeader = "X-Request-Id"

// RequestID assigns each request a UUID, honoring one supplied by a trusted
// upstream proxy, and exposes it on the context and the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := contextkeys.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
