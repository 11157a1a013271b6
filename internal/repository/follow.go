package repository

import (
	"context"
	"fmt"

	"talkpoint-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FollowRepository handles database operations for follow relationships
type FollowRepository struct {
	db *pgxpool.Pool
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *pgxpool.Pool) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create records a follow. Following twice is not an error.
func (r *FollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, follow.FollowerID, follow.FolloweeID, follow.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create follow: %w", classify(err))
	}
	return nil
}

// Delete removes a follow if present
func (r *FollowRepository) Delete(ctx context.Context, followerID, followeeID string) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	if _, err := r.db.Exec(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}
