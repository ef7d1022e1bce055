package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lakespend/lakespend/internal/auth"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

// SubjectKey is the context key for the authenticated token subject
const SubjectKey ContextKey = "subject"

// Auth returns a middleware that validates bearer tokens minted by the
// token endpoint
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			var tokenStr string
			if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
				tokenStr = parts[1]
			}

			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("missing bearer token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject extracts the authenticated subject from the request context
func GetSubject(r *http.Request) (string, bool) {
	subject, ok := r.Context().Value(SubjectKey).(string)
	return subject, ok
}
