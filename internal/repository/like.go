package repository

import (
	"context"
	"fmt"

	"talkpoint-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LikeRepository handles database operations for likes
type LikeRepository struct {
	db *pgxpool.Pool
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{db: db}
}

// Create records a like. Liking twice is not an error.
func (r *LikeRepository) Create(ctx context.Context, like *models.Like) error {
	query := `
		INSERT INTO likes (user_id, post_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, like.UserID, like.PostID, like.CreatedAt); err != nil {
		return fmt.Errorf("failed to create like: %w", classify(err))
	}
	return nil
}

// Delete removes a like if present
func (r *LikeRepository) Delete(ctx context.Context, userID, postID string) error {
	query := `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`
	if _, err := r.db.Exec(ctx, query, userID, postID); err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}
