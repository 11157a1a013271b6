package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talkpoint-backend/internal/models"
	"talkpoint-backend/internal/repository"
)

// FollowService manages who follows whom, which drives the "following" feed scope
type FollowService struct {
	follows FollowStore
	users   UserStore
	now     func() time.Time
}

// NewFollowService creates a new follow service
func NewFollowService(follows FollowStore, users UserStore) *FollowService {
	return &FollowService{
		follows: follows,
		users:   users,
		now:     time.Now,
	}
}

// Follow makes followerID follow the account with the given username
func (s *FollowService) Follow(ctx context.Context, followerID, username string) error {
	target, err := s.resolve(ctx, followerID, username)
	if err != nil {
		return err
	}
	err = s.follows.Create(ctx, &models.Follow{
		FollowerID: followerID,
		FolloweeID: target.ID,
		CreatedAt:  s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrReferenceMissing) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return nil
}

// Unfollow removes the follow if present
func (s *FollowService) Unfollow(ctx context.Context, followerID, username string) error {
	target, err := s.resolve(ctx, followerID, username)
	if err != nil {
		return err
	}
	if err := s.follows.Delete(ctx, followerID, target.ID); err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	return nil
}

func (s *FollowService) resolve(ctx context.Context, followerID, username string) (*models.User, error) {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if target.ID == followerID {
		return nil, invalid("You cannot follow yourself.")
	}
	return target, nil
}
