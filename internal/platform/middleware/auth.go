// Package middleware holds the HTTP middleware chain: request identity,
// authentication, recovery, and request observation.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"caseflow/internal/identity"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the verified identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*identity.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// verified user id and role in the request context for services to read.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			ident, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithUserID(ctx, ident.UserID)
			ctx = requestcontext.WithRole(ctx, string(ident.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
