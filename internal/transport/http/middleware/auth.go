package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/onepage-api/internal/domain"
	jwtinfra "github.com/onepage-api/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// AccessVerifier validates access tokens.
type AccessVerifier interface {
	VerifyAccess(token string) (*jwtinfra.Claims, error)
}

// Auth returns middleware that validates the Bearer access token and injects
// claims into context. No token is 401; an unusable token is 403.
func Auth(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			claims, err := verifier.VerifyAccess(tokenStr)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				writeJSONError(w, http.StatusForbidden, "Forbidden")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}
