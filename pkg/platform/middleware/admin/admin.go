// Package admin guards diagnostics endpoints that change audit history.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "pawtrail/pkg/domain-errors"
	"pawtrail/pkg/platform/httputil"
	"pawtrail/pkg/requestcontext"
)

// Actor is recorded on audit entries made through an admin-token request
// when no other actor was supplied.
const Actor = "admin"

// RequireAdminToken rejects requests whose X-Admin-Token header does not
// match expectedToken. An empty expectedToken disables every guarded route.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get("X-Admin-Token")
			// Use constant-time comparison to prevent timing attacks
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", requestcontext.ClientIP(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			if requestcontext.Actor(ctx) == "" {
				ctx = requestcontext.WithActor(ctx, Actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
