package httpx

import (
	"net/http"
	"strings"

	"bookshelf/internal/platform/crypto"
)

// AuthMiddleware requires a valid bearer token signed with secret and
// carrying the editor role.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONError(w, r, http.StatusUnauthorized, CodeUnauthorized, "Missing bearer token", nil)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := crypto.ParseToken(secret, token)
			if err != nil {
				JSONError(w, r, http.StatusUnauthorized, CodeUnauthorized, "Invalid token", nil)
				return
			}

			if claims.Role != crypto.RoleEditor {
				JSONError(w, r, http.StatusForbidden, CodeForbidden, "Token may not modify the catalog", nil)
				return
			}

			ctx := ContextWithSubject(r.Context(), claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
