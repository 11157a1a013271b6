package handlers

import (
	"net/http"

	"talkpoint-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles signup, verification and signin
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// VerifyRequest represents the request body for verification
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// SigninRequest represents the request body for signin
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.Signup(r.Context(), req.Email, req.Username, req.Password); err != nil {
		respondServiceError(w, r, err, "Failed to sign up.")
		return
	}

	log.Info().
		Str("email", req.Email).
		Str("username", req.Username).
		Msg("User signed up")

	respondOK(w, map[string]interface{}{
		"message": "Account created. Use the verification code printed in the server console.",
	})
}

// Verify handles POST /api/auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		respondServiceError(w, r, err, "Failed to verify.")
		return
	}

	log.Info().Str("user_id", session.User.ID).Msg("User verified")

	respondOK(w, map[string]interface{}{
		"token": session.Token,
		"user":  session.User,
	})
}

// Signin handles POST /api/auth/signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "Failed to sign in.")
		return
	}

	log.Info().Str("user_id", session.User.ID).Msg("User signed in")

	respondOK(w, map[string]interface{}{
		"token": session.Token,
		"user":  session.User,
	})
}
