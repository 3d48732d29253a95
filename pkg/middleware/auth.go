package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lorenzboss/m306-rate-mate/pkg/logger"
)

type ctxKey int

const claimsKey ctxKey = iota

// Claims identifies the authenticated caller of a request.
type Claims struct {
	UserID string
	Email  string
	Role   int
}

// TokenValidator turns a bearer token into Claims or rejects it.
type TokenValidator func(token string) (*Claims, error)

// Auth requires a valid bearer token. The caller's claims are stored in the
// request context and added to the request-scoped logger.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeError(w, http.StatusUnauthorized, "NOT_AUTHENTICATED", "authentication required")
				return
			}

			claims, err := validate(strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "NOT_AUTHENTICATED", "invalid or expired token")
				return
			}

			role := strconv.Itoa(claims.Role)
			ctx := WithClaims(r.Context(), claims)
			ctx = logger.WithCaller(ctx, claims.UserID, role)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(
				slog.String("user_id", claims.UserID),
				slog.String("role", role),
			))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through only when the caller holds one of roles.
// It must run after Auth.
func RequireRole(roles ...int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := ClaimsFromContext(r.Context())
			if c == nil {
				writeError(w, http.StatusUnauthorized, "NOT_AUTHENTICATED", "authentication required")
				return
			}
			for _, role := range roles {
				if c.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		})
	}
}

// WithClaims stores c in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext returns the caller's claims, or nil when the request is
// unauthenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}
