package repository

import (
	"context"
	"fmt"

	"talkpoint-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentRepository handles database operations for comments
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment and fills in the author's username.
// A missing post or author yields ErrReferenceMissing.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		WITH c AS (
			INSERT INTO comments (id, post_id, author_id, body, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING author_id
		)
		SELECT u.username FROM c JOIN users u ON u.id = c.author_id
	`
	err := r.db.QueryRow(ctx, query,
		comment.ID, comment.PostID, comment.AuthorID, comment.Body, comment.CreatedAt,
	).Scan(&comment.Username)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", classify(err))
	}
	return nil
}

// ListByPost returns the comments on a post, oldest first
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, u.username, c.body, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`
	rows, err := r.db.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Comment, error) {
		var comment models.Comment
		err := row.Scan(
			&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Username,
			&comment.Body, &comment.CreatedAt,
		)
		return &comment, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan comments: %w", err)
	}
	return comments, nil
}
