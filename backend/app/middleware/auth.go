package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"fleet-relay/backend/app/dto"
	jwtutil "fleet-relay/backend/app/jwt"
	"fleet-relay/backend/app/models"
)

type ctxKey int

const ClaimsKey ctxKey = 1

// Auth guards operator routes. With Enabled false every request passes.
type Auth struct {
	Signer  *jwtutil.Signer
	Enabled bool
}

func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return a.require(next, func(*jwtutil.Claims) bool { return true })
}

func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return a.require(next, func(c *jwtutil.Claims) bool { return c.Role == models.RoleAdmin })
}

func (a *Auth) require(next http.Handler, allowed func(*jwtutil.Claims) bool) http.Handler {
	if !a.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			deny(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token := strings.TrimPrefix(authz, "Bearer ")
		claims, err := a.Signer.Parse(token)
		if err != nil {
			deny(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if !allowed(claims) {
			deny(w, http.StatusForbidden, "insufficient role")
			return
		}
		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(dto.StatusResponse{Status: dto.StatusError, Message: msg})
}
