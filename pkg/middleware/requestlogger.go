package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/cardshop/pkg/logger"
)

// RequestLogger builds a request-scoped logger carrying correlation_id,
// login, trace_id and span_id, and stores it in the request context for
// logger.FromContext. The login comes from the X-Login header.
//
// Mount it after RequestLogging and Tracing so both IDs are available.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if login := r.Header.Get(LoginHeader); login != "" {
				ctx = logger.WithLogin(ctx, login)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
