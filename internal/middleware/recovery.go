package middleware

import (
	"net/http"
	"runtime/debug"

	"hfproxy-gateway/pkg/logging/logging"

	"go.uber.org/zap"
)

// Recoverer catches panics that escape a handler, logs them, and answers
// with the gateway's generic internal-error body. If the handler already
// started streaming, the write of the 500 header fails silently and the
// client simply sees a truncated connection.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec != nil {
					logger := logging.L(r.Context())
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.ByteString("stack", debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal_server_error","details":"unexpected failure","status":500}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
