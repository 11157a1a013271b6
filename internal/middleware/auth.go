package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"talkpoint-backend/internal/services"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenValidator decodes a bearer token into the caller's identity
type TokenValidator interface {
	ValidateToken(token string) (*services.Identity, error)
}

// AuthMiddleware rejects requests without a valid bearer token and
// attaches the decoded identity to the request context
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondError(w, "Missing token", http.StatusUnauthorized)
				return
			}

			identity, err := validator.ValidateToken(token)
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithIdentity returns a context carrying identity
func WithIdentity(ctx context.Context, identity *services.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity extracts the caller's identity from context
func GetIdentity(ctx context.Context) *services.Identity {
	identity, _ := ctx.Value(identityKey).(*services.Identity)
	return identity
}

// GetUserID extracts the caller's user ID from context
func GetUserID(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.ID
	}
	return ""
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
