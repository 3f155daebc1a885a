package middleware

import (
	"context"
	"net/http"
	"time"

	jwtutil "fleet-relay/backend/app/jwt"
)

// GetClaims returns the operator claims attached by Auth, or nil when auth
// is disabled.
func GetClaims(ctx context.Context) *jwtutil.Claims {
	if v := ctx.Value(ClaimsKey); v != nil {
		if c, ok := v.(*jwtutil.Claims); ok {
			return c
		}
	}
	return nil
}

// Deadline bounds the request context by d. Zero disables it.
func Deadline(d time.Duration, next http.Handler) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
