package repository

import (
	"context"
	"fmt"
	"strings"

	"talkpoint-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostRepository handles database operations for posts
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post and fills in the author's username
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		WITH p AS (
			INSERT INTO posts (id, author_id, image_url, caption, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING author_id
		)
		SELECT u.username FROM p JOIN users u ON u.id = p.author_id
	`
	err := r.db.QueryRow(ctx, query,
		post.ID, post.AuthorID, post.ImageURL, post.Caption, post.CreatedAt,
	).Scan(&post.Username)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", classify(err))
	}
	return nil
}

// List returns one page of posts visible under the filter, newest first
func (r *PostRepository) List(ctx context.Context, f models.PostFilter) ([]*models.Post, error) {
	query := `
		SELECT p.id, p.author_id, u.username, p.image_url, p.caption, p.created_at,
		       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
		       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
		       EXISTS(SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = $1::uuid)
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE (
			$2::text = 'all'
			OR ($2::text = 'mine' AND p.author_id = $1::uuid)
			OR ($2::text = 'following' AND p.author_id IN (
				SELECT followee_id FROM follows WHERE follower_id = $1::uuid
			))
		)
		AND ($3::text = '' OR u.username ILIKE $4::text OR p.caption ILIKE $4::text)
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $5 OFFSET $6
	`
	pattern := "%" + escapeLike(f.Query) + "%"
	rows, err := r.db.Query(ctx, query,
		f.CallerID, string(f.Scope), f.Query, pattern, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Post, error) {
		var post models.Post
		err := row.Scan(
			&post.ID, &post.AuthorID, &post.Username, &post.ImageURL, &post.Caption,
			&post.CreatedAt, &post.LikeCount, &post.CommentCount, &post.Liked,
		)
		return &post, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan posts: %w", err)
	}
	return posts, nil
}

// escapeLike makes s match literally inside an ILIKE pattern
// that uses the default backslash escape.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
