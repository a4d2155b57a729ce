// Package auth provides authentication middleware for API key and JWT-based
// user authentication on the HTTP API.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// APIKeyHeader is the header for API key authentication
	APIKeyHeader = "X-Api-Key"

	// userContextKey is the context key for storing the authenticated user
	userContextKey contextKey = "user"
)

// Middleware authenticates requests with either an API key or a bearer
// token. Requests carrying a valid JWT are bound to the user in the claims;
// API key requests identify the user through the X-User-Id header.
type Middleware struct {
	apiKeys map[string]bool
	jwt     *JWTManager
}

// NewMiddleware creates authentication middleware. Either input may be empty;
// a request passes if any configured scheme accepts it.
func NewMiddleware(apiKeys []string, jwtManager *JWTManager) *Middleware {
	keys := make(map[string]bool, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys[k] = true
		}
	}
	return &Middleware{apiKeys: keys, jwt: jwtManager}
}

// Handler wraps an http.Handler with authentication.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Bearer token first.
		if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") && m.jwt != nil {
			token := strings.TrimPrefix(authz, "Bearer ")
			claims, err := m.jwt.ValidateToken(token)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
			return
		}

		// API key.
		apiKey := strings.TrimSpace(r.Header.Get(APIKeyHeader))
		if apiKey != "" && m.apiKeys[apiKey] {
			userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
			if userID == "" {
				unauthorized(w, "missing X-User-Id header")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
			return
		}

		unauthorized(w, "missing or invalid credentials")
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// WithUserID stores the authenticated user ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

// UserIDFromContext extracts the authenticated user ID from the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userContextKey).(string)
	return userID, ok && userID != ""
}
