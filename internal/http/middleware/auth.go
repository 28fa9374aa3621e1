package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth requires a bearer token on /v1/ routes. An empty token disables it.
func Auth(requiredToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiredToken == "" || !strings.HasPrefix(r.URL.Path, "/v1/") {
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			authorization := r.Header.Get("Authorization")
			if !strings.HasPrefix(authorization, prefix) {
				WriteError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authorization, prefix))
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(requiredToken)) != 1 {
				WriteError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
