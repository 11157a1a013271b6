package handlers

import (
	"net/http"

	"talkpoint-backend/internal/middleware"
	"talkpoint-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// CommentHandler handles the comment and like sub-resources of a post
type CommentHandler struct {
	commentService *services.CommentService
	likeService    *services.LikeService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService *services.CommentService, likeService *services.LikeService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		likeService:    likeService,
	}
}

// AddCommentRequest represents the request body for adding a comment
type AddCommentRequest struct {
	Body string `json:"body"`
}

// ListComments handles GET /api/posts/{id}/comments
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(r.Context(), postID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load comments.")
		return
	}

	respondOK(w, map[string]interface{}{"comments": comments})
}

// AddComment handles POST /api/posts/{id}/comments
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	var req AddCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.AddComment(ctx, postID, userID, req.Body)
	if err != nil {
		respondServiceError(w, r, err, "Failed to add comment.")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("post_id", postID).
		Str("comment_id", comment.ID).
		Msg("Comment added")

	respondOK(w, map[string]interface{}{"comment": comment})
}

// Like handles POST /api/posts/{id}/like
func (h *CommentHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	if err := h.likeService.Like(ctx, middleware.GetUserID(ctx), postID); err != nil {
		respondServiceError(w, r, err, "Failed to like post.")
		return
	}
	respondOK(w, nil)
}

// Unlike handles POST /api/posts/{id}/unlike
func (h *CommentHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	if err := h.likeService.Unlike(ctx, middleware.GetUserID(ctx), postID); err != nil {
		respondServiceError(w, r, err, "Failed to unlike post.")
		return
	}
	respondOK(w, nil)
}
