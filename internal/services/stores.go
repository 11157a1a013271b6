package services

import (
	"context"
	"time"

	"talkpoint-backend/internal/models"
)

// The store interfaces are satisfied by the PostgreSQL repositories in
// internal/repository and by the in-memory store in internal/repository/memory.

type UserStore interface {
	CreateWithCode(ctx context.Context, user *models.User, code *models.VerificationCode) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	MarkVerified(ctx context.Context, id string, at time.Time) error
	ConsumeCode(ctx context.Context, email, code string, now time.Time) (string, error)
}

type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
}

type LikeStore interface {
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, userID, postID string) error
}

type FollowStore interface {
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, followerID, followeeID string) error
}
