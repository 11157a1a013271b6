package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"talkpoint-backend/internal/models"
	"talkpoint-backend/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultPageSize  = 10
	MaxPageSize      = 50
	MaxCaptionLength = 280
)

// PostService handles post creation and feed listing
type PostService struct {
	posts  PostStore
	images ImageStore
	now    func() time.Time
}

// NewPostService creates a new post service
func NewPostService(posts PostStore, images ImageStore) *PostService {
	return &PostService{
		posts:  posts,
		images: images,
		now:    time.Now,
	}
}

// CreatePost publishes a post for the author
func (s *PostService) CreatePost(ctx context.Context, authorID, image, caption string) (*models.Post, error) {
	caption = strings.TrimSpace(caption)
	if image == "" || caption == "" {
		return nil, invalid("Image and caption are required.")
	}
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return nil, invalid(fmt.Sprintf("Caption must be %d characters or fewer.", MaxCaptionLength))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate post id: %w", err)
	}
	postID := id.String()

	stored, err := s.images.Put(ctx, postID, image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:        postID,
		AuthorID:  authorID,
		ImageURL:  stored,
		Caption:   caption,
		CreatedAt: s.now(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// ListPosts returns one page of the caller's feed
func (s *PostService) ListPosts(ctx context.Context, callerID string, scope models.Scope, query string, pageSize, offset int) ([]*models.Post, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if scope == "" {
		scope = models.ScopeAll
	}

	posts, err := s.posts.List(ctx, models.PostFilter{
		CallerID: callerID,
		Scope:    scope,
		Query:    strings.TrimSpace(query),
		Limit:    pageSize,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

// PageOffset converts a 1-based page number into a row offset. Pages past
// the addressable range map to math.MaxInt so they come back empty.
func PageOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	if pageSize > 0 && page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}
