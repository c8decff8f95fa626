package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/platinummonkey/gatehouse/pkg/async"
	"github.com/platinummonkey/gatehouse/pkg/httputil"
	"github.com/platinummonkey/gatehouse/pkg/logging"
	"github.com/platinummonkey/gatehouse/pkg/observability"
)

// Recoverer catches handler panics, answers with the 500 envelope and mirrors
// the fault into the event log. The panic never reaches the server loop.
//
// It also attaches the logger to the request context so deeper handlers can
// log without threading it through every call.
func Recoverer(logger *observability.Logger, writer logging.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				logger.WithField("panic", rec).
					WithField("stack", string(debug.Stack())).
					WithField("path", r.URL.Path).
					Error("PANIC recovered in handler")

				if writer != nil {
					// Detached from the request context: the response is
					// already being written and the request is about to die.
					entry := logging.NewRequestError("", fmt.Errorf("panic: %v", rec), r)
					async.SafeGo(context.Background(), 5*time.Second, "panic event log",
						func(ctx context.Context) error {
							return writer.Write(ctx, entry)
						})
				}

				httputil.WriteInternalError(w)
			}()

			ctx := observability.ContextWithLogger(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
