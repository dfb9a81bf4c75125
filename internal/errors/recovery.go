package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/copyleftdev/firefly/internal/logging"
)

// RecoveryMiddleware returns a middleware that turns handler panics into a
// 500 response and logs them with the stack.
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("Recovered from panic", map[string]interface{}{
					"error":  fmt.Sprint(rec),
					"stack":  string(debug.Stack()),
					"method": r.Method,
					"path":   r.URL.Path,
					"query":  r.URL.RawQuery,
				})

				WriteJSON(w, fmt.Errorf("internal error"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
