package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pratik-mahalle/lexaudit/internal/auth"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// SubjectKey is the context key for the token subject
	SubjectKey ContextKey = "subject"
	// RoleKey is the context key for the token role
	RoleKey ContextKey = "role"
)

// bearerToken reads the token from the Authorization header, or from the
// access_token query parameter for websocket upgrades
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// AuthMiddleware returns a middleware that validates JWT tokens
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, claims.Subject)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)

			AddLogField(w, "subject", claims.Subject)
			AddLogField(w, "role", claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose token role ranks below role
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, _ := GetRole(r)
			if !auth.Allows(current, role) {
				utils.WriteError(w, errors.Forbidden("This action requires the "+role+" role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSubject extracts the token subject from the request context
func GetSubject(r *http.Request) (string, bool) {
	subject, ok := r.Context().Value(SubjectKey).(string)
	return subject, ok
}

// GetRole extracts the token role from the request context
func GetRole(r *http.Request) (string, bool) {
	role, ok := r.Context().Value(RoleKey).(string)
	return role, ok
}
