package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"talkpoint-backend/internal/models"
	"talkpoint-backend/internal/repository"

	"github.com/google/uuid"
)

// CommentService handles comments on posts
type CommentService struct {
	comments CommentStore
	now      func() time.Time
}

// NewCommentService creates a new comment service
func NewCommentService(comments CommentStore) *CommentService {
	return &CommentService{
		comments: comments,
		now:      time.Now,
	}
}

// ListComments returns a post's comments, oldest first
func (s *CommentService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

// AddComment appends a comment and returns it with the author's username
func (s *CommentService) AddComment(ctx context.Context, postID, authorID, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("Comment text is required.")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate comment id: %w", err)
	}

	comment := &models.Comment{
		ID:        id.String(),
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}
