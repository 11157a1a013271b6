package handlers

import (
	"net/http"

	"talkpoint-backend/internal/middleware"
	"talkpoint-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	authService   *services.AuthService
	followService *services.FollowService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *services.AuthService, followService *services.FollowService) *UserHandler {
	return &UserHandler{
		authService:   authService,
		followService: followService,
	}
}

// Me handles GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.authService.Me(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load user.")
		return
	}

	respondOK(w, map[string]interface{}{"user": user})
}

// Follow handles POST /api/users/{username}/follow
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	username := chi.URLParam(r, "username")

	if err := h.followService.Follow(ctx, userID, username); err != nil {
		respondServiceError(w, r, err, "Failed to follow user.")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("username", username).
		Msg("User followed")

	respondOK(w, nil)
}

// Unfollow handles POST /api/users/{username}/unfollow
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	username := chi.URLParam(r, "username")

	if err := h.followService.Unfollow(ctx, userID, username); err != nil {
		respondServiceError(w, r, err, "Failed to unfollow user.")
		return
	}

	respondOK(w, nil)
}
