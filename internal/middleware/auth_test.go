package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"talkpoint-backend/internal/services"
)

type fakeValidator map[string]*services.Identity

func (f fakeValidator) ValidateToken(token string) (*services.Identity, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return nil, services.ErrInvalidToken
}

func TestAuthMiddleware(t *testing.T) {
	validator := fakeValidator{
		"good": {ID: "u1", Email: "a@louisville.edu", Username: "alice"},
	}

	var seen *services.Identity
	handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetIdentity(r.Context())
		if GetUserID(r.Context()) != "u1" {
			t.Errorf("user id = %q", GetUserID(r.Context()))
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
		error  string
	}{
		{"no header", "", http.StatusUnauthorized, "Missing token"},
		{"basic scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, "Missing token"},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized, "Missing token"},
		{"lowercase scheme", "bearer good", http.StatusUnauthorized, "Missing token"},
		{"bad token", "Bearer forged", http.StatusUnauthorized, "Invalid token"},
		{"good token", "Bearer good", http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.error == "" {
				if seen == nil || seen.Username != "alice" {
					t.Fatalf("handler saw identity %+v", seen)
				}
				return
			}
			if seen != nil {
				t.Fatal("handler ran for a rejected request")
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != tt.error {
				t.Fatalf("error = %q, want %q", body["error"], tt.error)
			}
		})
	}
}

func TestGetIdentityWithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetIdentity(req.Context()) != nil || GetUserID(req.Context()) != "" {
		t.Fatal("identity present on an unauthenticated request")
	}
}
