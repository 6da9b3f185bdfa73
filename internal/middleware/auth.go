package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rupaya-app/rupaya/internal/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserID extracts the authenticated user's id from the request context.
// Returns "" when the request was not authenticated.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserID returns a context carrying the authenticated user's id. Exposed
// for tests that call handlers directly.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Auth validates the bearer token on incoming requests and stores the
// authenticated user id in the request context.
type Auth struct {
	jwtManager *auth.JWTManager
}

// NewAuth creates the authentication middleware.
func NewAuth(jwtManager *auth.JWTManager) *Auth {
	return &Auth{jwtManager: jwtManager}
}

// Require rejects requests without a valid "Authorization: Bearer" token.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "authorization header required")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			unauthorized(w, "authorization header must use the Bearer scheme")
			return
		}

		claims, err := a.jwtManager.Validate(token)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, "{\"error\":%q}", msg)
}
