package handlers

import (
	"net/http"
	"strconv"

	"talkpoint-backend/internal/middleware"
	"talkpoint-backend/internal/models"
	"talkpoint-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// CreatePostRequest represents the request body for creating a post
type CreatePostRequest struct {
	ImageData string `json:"imageData"`
	Caption   string `json:"caption"`
}

// CreatePost handles POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.CreatePost(ctx, userID, req.ImageData, req.Caption)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create post.")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("post_id", post.ID).
		Msg("Post created")

	respondOK(w, map[string]interface{}{"post": post})
}

// ListPosts handles GET /api/posts?scope&q&page&pageSize
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	query := r.URL.Query()

	scope, err := models.ParseScope(query.Get("scope"))
	if err != nil {
		respondError(w, "Invalid scope.", http.StatusBadRequest)
		return
	}

	page := 1
	pageSize := services.DefaultPageSize

	if pageStr := query.Get("page"); pageStr != "" {
		if parsed, err := strconv.Atoi(pageStr); err == nil && parsed > 0 {
			page = parsed
		}
	}

	if sizeStr := query.Get("pageSize"); sizeStr != "" {
		if parsed, err := strconv.Atoi(sizeStr); err == nil && parsed > 0 {
			pageSize = parsed
		}
	}
	if pageSize > services.MaxPageSize {
		pageSize = services.MaxPageSize
	}

	posts, err := h.postService.ListPosts(ctx, userID, scope, query.Get("q"), pageSize, services.PageOffset(page, pageSize))
	if err != nil {
		respondServiceError(w, r, err, "Failed to load posts.")
		return
	}

	respondOK(w, map[string]interface{}{
		"posts":    posts,
		"page":     page,
		"pageSize": pageSize,
	})
}
