package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talkpoint-backend/internal/models"
	"talkpoint-backend/internal/repository"
)

// LikeService handles likes on posts
type LikeService struct {
	likes LikeStore
	now   func() time.Time
}

// NewLikeService creates a new like service
func NewLikeService(likes LikeStore) *LikeService {
	return &LikeService{
		likes: likes,
		now:   time.Now,
	}
}

// Like records that the user likes the post. Repeating it is a no-op.
func (s *LikeService) Like(ctx context.Context, userID, postID string) error {
	err := s.likes.Create(ctx, &models.Like{
		UserID:    userID,
		PostID:    postID,
		CreatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrReferenceMissing) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to like post: %w", err)
	}
	return nil
}

// Unlike removes the user's like. Unliking a post that is not liked is a no-op.
func (s *LikeService) Unlike(ctx context.Context, userID, postID string) error {
	if err := s.likes.Delete(ctx, userID, postID); err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}
	return nil
}
