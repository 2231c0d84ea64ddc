package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/handyhub/dispatch-api/internal/pkg/logger"
	"github.com/handyhub/dispatch-api/internal/pkg/response"
)

// Recover turns a handler panic into a 500 and logs it with the request's logger.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.FromContext(r.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("actor_id", GetActorID(r.Context())).
				Msg("Panic recovered")

			response.InternalError(w)
		}()

		next.ServeHTTP(w, r)
	})
}
